package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mojster_trust/internal/adapter/http/handlers/mocks"
	"mojster_trust/internal/adapter/http/middleware"
	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	"mojster_trust/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

var testCustomer = entities.Actor{ID: "nar-1", Role: entities.RoleNarocnik}
var testAdmin = entities.Actor{ID: "adm-1", Role: entities.RoleAdmin}

func escrowRouter(h *EscrowHandler, actor entities.Actor) *gin.Engine {
	r := gin.New()
	r.Use(middleware.WithActor(actor))
	r.POST("/v1/escrow/authorize", h.Authorize)
	r.POST("/v1/escrow/:id/release", h.Release)
	r.POST("/v1/escrow/:id/refund", h.Refund)
	r.POST("/v1/escrow/:id/dispute", h.Dispute)
	r.POST("/v1/escrow/:id/resolve", h.ResolveDispute)
	r.GET("/v1/escrow/:id/audit", h.ListAudit)
	return r
}

func TestEscrowHandler_Authorize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		h := NewEscrowHandler(mocks.NewMockIEscrowUseCase(ctrl))
		r := escrowRouter(h, testCustomer)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/authorize", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		uc.EXPECT().Authorize(gomock.Any(), testCustomer, "off-1", int64(10000)).Return(entities.EscrowTransaction{
			ID:           "tx-1",
			OfferID:      "off-1",
			GrossAmount:  10000,
			PlatformFee:  1000,
			PayoutAmount: 9000,
			Status:       entities.EscrowStatusPaid,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/authorize", bytes.NewBufferString(`{"offer_id":"off-1","gross_amount":10000}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["success"] != true {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
		data := body["data"].(map[string]any)
		if data["platform_fee"] != float64(1000) || data["payout_amount"] != float64(9000) {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("gateway timeout maps to 504", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		uc.EXPECT().Authorize(gomock.Any(), testCustomer, "off-1", int64(10000)).Return(entities.EscrowTransaction{}, usecase.ErrGatewayTimeout)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/authorize", bytes.NewBufferString(`{"offer_id":"off-1","gross_amount":10000}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusGatewayTimeout {
			t.Fatalf("expected 504, got %d", w.Code)
		}
	})

	t.Run("gateway failure maps to 502", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		uc.EXPECT().Authorize(gomock.Any(), testCustomer, "off-1", int64(10000)).Return(entities.EscrowTransaction{}, usecase.ErrGatewayFailed)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/authorize", bytes.NewBufferString(`{"offer_id":"off-1","gross_amount":10000}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})
}

func TestEscrowHandler_Release(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		uc.EXPECT().Release(gomock.Any(), testCustomer, "tx-1").Return(entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusReleased}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/escrow/tx-1/release", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("terminal state maps to 409", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		uc.EXPECT().Release(gomock.Any(), testCustomer, "tx-1").Return(entities.EscrowTransaction{}, &statemachine.TerminalStateError{
			EntityType: "escrow_transaction", EntityID: "tx-1", Current: "refunded", Target: "released",
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/escrow/tx-1/release", nil))
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})
}

func TestEscrowHandler_RefundAndResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("refund forbidden for non-admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		uc.EXPECT().Refund(gomock.Any(), testCustomer, "tx-1", "no-show", int64(0)).Return(entities.EscrowTransaction{}, usecase.ErrForbidden)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/tx-1/refund", bytes.NewBufferString(`{"reason":"no-show"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("resolve refund success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testAdmin)

		uc.EXPECT().ResolveDispute(gomock.Any(), testAdmin, "tx-1", "refund").Return(entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusRefunded}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/tx-1/resolve", bytes.NewBufferString(`{"outcome":" Refund "}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("dispute without reason is rejected by binding", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIEscrowUseCase(ctrl)
		h := NewEscrowHandler(uc)
		r := escrowRouter(h, testCustomer)

		req := httptest.NewRequest(http.MethodPost, "/v1/escrow/tx-1/dispute", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestEscrowHandler_ListAudit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	uc := mocks.NewMockIEscrowUseCase(ctrl)
	h := NewEscrowHandler(uc)
	r := escrowRouter(h, testCustomer)

	uc.EXPECT().ListAudit(gomock.Any(), "tx-1").Return([]entities.AuditLogEntry{
		{ID: "a-1", EntityID: "tx-1", Seq: 1, ToStatus: "pending"},
		{ID: "a-2", EntityID: "tx-1", Seq: 2, FromStatus: "pending", ToStatus: "paid"},
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/escrow/tx-1/audit", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	entries, ok := body["data"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("unexpected response body: %s", w.Body.String())
	}
}

func TestMapEscrowError(t *testing.T) {
	if got := mapEscrowError(usecase.ErrInvalidGrossAmount); got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
	if got := mapEscrowError(usecase.ErrForbidden); got.HTTPStatus != http.StatusForbidden {
		t.Fatalf("expected 403")
	}
	if got := mapEscrowError(usecase.ErrTransactionNotFound); got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404")
	}
	if got := mapEscrowError(usecase.ErrOfferNotAccepted); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapEscrowError(entities.ErrConcurrencyConflict); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapEscrowError(usecase.ErrGatewayFailed); got.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("expected 502")
	}
	if got := mapEscrowError(usecase.ErrGatewayTimeout); got.HTTPStatus != http.StatusGatewayTimeout {
		t.Fatalf("expected 504")
	}
	if got := mapEscrowError(errors.New("x")); got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500")
	}
}
