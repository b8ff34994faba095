package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mojster_trust/internal/adapter/http/handlers/mocks"
	"mojster_trust/internal/adapter/http/middleware"
	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

var testCraftworker = entities.Actor{ID: "obr-1", Role: entities.RoleObrtnik, Tier: "pro"}

func offerRouter(h *OfferHandler, actor entities.Actor) *gin.Engine {
	r := gin.New()
	r.Use(middleware.WithActor(actor))
	r.POST("/v1/offers", h.Create)
	r.POST("/v1/offers/:id/accept", h.Accept)
	r.POST("/v1/offers/:id/reject", h.Reject)
	return r
}

func TestOfferHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		h := NewOfferHandler(mocks.NewMockIOfferUseCase(ctrl))
		r := offerRouter(h, testCraftworker)

		req := httptest.NewRequest(http.MethodPost, "/v1/offers", bytes.NewBufferString("{"))
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
		uc := mocks.NewMockIOfferUseCase(ctrl)
		h := NewOfferHandler(uc)
		r := offerRouter(h, testCraftworker)

		uc.EXPECT().CreateOffer(gomock.Any(), testCraftworker, "inq-1", int64(25000)).Return(entities.Offer{
			ID: "off-1", InquiryID: "inq-1", CraftworkerID: "obr-1", PriceEstimate: 25000, Tier: "pro", Status: entities.OfferStatusPoslana,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/offers", bytes.NewBufferString(`{"inquiry_id":"inq-1","price_estimate":25000}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		data := body["data"].(map[string]any)
		if data["status"] != "poslana" || data["tier"] != "pro" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("customer cannot bid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOfferUseCase(ctrl)
		h := NewOfferHandler(uc)
		r := offerRouter(h, testCustomer)

		uc.EXPECT().CreateOffer(gomock.Any(), testCustomer, "inq-1", int64(25000)).Return(entities.Offer{}, usecase.ErrForbidden)

		req := httptest.NewRequest(http.MethodPost, "/v1/offers", bytes.NewBufferString(`{"inquiry_id":"inq-1","price_estimate":25000}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("closed inquiry maps to 409", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOfferUseCase(ctrl)
		h := NewOfferHandler(uc)
		r := offerRouter(h, testCraftworker)

		uc.EXPECT().CreateOffer(gomock.Any(), testCraftworker, "inq-1", int64(25000)).Return(entities.Offer{}, usecase.ErrInquiryNotOpen)

		req := httptest.NewRequest(http.MethodPost, "/v1/offers", bytes.NewBufferString(`{"inquiry_id":"inq-1","price_estimate":25000}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})
}

func TestOfferHandler_Decide(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("accept success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOfferUseCase(ctrl)
		h := NewOfferHandler(uc)
		r := offerRouter(h, testCustomer)

		uc.EXPECT().AcceptOffer(gomock.Any(), testCustomer, "off-1").Return(entities.Offer{ID: "off-1", Status: entities.OfferStatusSprejeta}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/offers/off-1/accept", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("reject not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOfferUseCase(ctrl)
		h := NewOfferHandler(uc)
		r := offerRouter(h, testCustomer)

		uc.EXPECT().RejectOffer(gomock.Any(), testCustomer, "off-9").Return(entities.Offer{}, usecase.ErrOfferNotFound)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/offers/off-9/reject", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}
