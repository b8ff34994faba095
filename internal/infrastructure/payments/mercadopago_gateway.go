package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mojster_trust/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")

// MercadoPagoGateway implements the escrow money movements on Mercado Pago:
// CreateHold is an uncaptured (capture=false) payment, Capture settles it to
// the craftworker, Cancel voids the hold so funds return to the customer.
//
// Mock mode (PAYMENT_GATEWAY_MOCK / MERCADOPAGO_MOCK) answers locally with
// synthetic references; used in tests and local compose setups.

type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if isPaymentGatewayMockEnabled() {
		zap.S().Infof("[payment][gateway] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true}, nil
	}

	if accessToken == "" {
		zap.S().Warnf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		zap.S().Errorf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	zap.S().Infof("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg)}, nil
}

func (g *MercadoPagoGateway) CreateHold(ctx context.Context, amountMinorUnits int64, destinationAccount string) (string, error) {
	if g != nil && g.mockMode {
		ref := "mock-" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		zap.S().Infof("[payment][gateway] mock hold created ref=%s amount=%d dest=%s", ref, amountMinorUnits, destinationAccount)
		return ref, nil
	}
	if g == nil || g.client == nil {
		return "", ErrMercadoPagoGatewayNotConfigured
	}

	// The API takes major units; amounts are carried internally in minor
	// units to keep the commission arithmetic integral.
	payload := map[string]any{
		"transaction_amount": float64(amountMinorUnits) / 100,
		"description":        "escrow hold",
		"capture":            false,
		"external_reference": destinationAccount,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	var req payment.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", err
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		zap.S().Warnf("[payment][gateway] hold create failed amount=%d err=%v", amountMinorUnits, err)
		return "", err
	}
	zap.S().Infof("[payment][gateway] hold created ref=%d status=%s", resp.ID, resp.Status)
	return fmt.Sprintf("%d", resp.ID), nil
}

func (g *MercadoPagoGateway) Capture(ctx context.Context, gatewayRef string) error {
	if g != nil && g.mockMode {
		zap.S().Infof("[payment][gateway] mock capture ref=%s", gatewayRef)
		return nil
	}
	if g == nil || g.client == nil {
		return ErrMercadoPagoGatewayNotConfigured
	}

	id, err := strconv.Atoi(gatewayRef)
	if err != nil {
		return fmt.Errorf("invalid gateway reference %q: %w", gatewayRef, err)
	}
	resp, err := g.client.Capture(ctx, id)
	if err != nil {
		zap.S().Warnf("[payment][gateway] capture failed ref=%s err=%v", gatewayRef, err)
		return err
	}
	zap.S().Infof("[payment][gateway] capture success ref=%s status=%s", gatewayRef, resp.Status)
	return nil
}

func (g *MercadoPagoGateway) Cancel(ctx context.Context, gatewayRef, reason string) (string, error) {
	if g != nil && g.mockMode {
		ref := "mock-refund-" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		zap.S().Infof("[payment][gateway] mock cancel ref=%s refund_ref=%s reason=%s", gatewayRef, ref, reason)
		return ref, nil
	}
	if g == nil || g.client == nil {
		return "", ErrMercadoPagoGatewayNotConfigured
	}

	id, err := strconv.Atoi(gatewayRef)
	if err != nil {
		return "", fmt.Errorf("invalid gateway reference %q: %w", gatewayRef, err)
	}
	resp, err := g.client.Cancel(ctx, id)
	if err != nil {
		zap.S().Warnf("[payment][gateway] cancel failed ref=%s reason=%s err=%v", gatewayRef, reason, err)
		return "", err
	}
	zap.S().Infof("[payment][gateway] cancel success ref=%s status=%s reason=%s", gatewayRef, resp.Status, reason)
	return fmt.Sprintf("%d", resp.ID), nil
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
