package interfaces

import "context"

// IPaymentGateway abstracts the external payment provider (e.g. Mercado
// Pago). The orchestrator only ever needs three operations: create a hold,
// capture it, or cancel it. Webhook-driven reconciliation lives outside the
// core.

type IPaymentGateway interface {
	CreateHold(ctx context.Context, amountMinorUnits int64, destinationAccount string) (gatewayRef string, err error)
	Capture(ctx context.Context, gatewayRef string) error
	Cancel(ctx context.Context, gatewayRef string, reason string) (refundRef string, err error)
}
