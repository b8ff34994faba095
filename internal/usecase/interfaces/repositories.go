package interfaces

import (
	"context"

	"mojster_trust/internal/domain/entities"
)

// IInquiryRepository abstracts DynamoDB persistence for Inquiry.
//
// UpdateStatus is a conditional write on the expected current status; when a
// concurrent writer got there first it returns entities.ErrConcurrencyConflict
// so the loser never silently overwrites.

type IInquiryRepository interface {
	Create(ctx context.Context, inq entities.Inquiry) (entities.Inquiry, error)
	GetByID(ctx context.Context, id string) (entities.Inquiry, error)
	UpdateStatus(ctx context.Context, id string, expected, next entities.InquiryStatus) (entities.Inquiry, error)
}

// IOfferRepository abstracts DynamoDB persistence for Offer.

type IOfferRepository interface {
	Create(ctx context.Context, o entities.Offer) (entities.Offer, error)
	GetByID(ctx context.Context, id string) (entities.Offer, error)
	ListByInquiryID(ctx context.Context, inquiryID string) ([]entities.Offer, error)
	UpdateStatus(ctx context.Context, id string, expected, next entities.OfferStatus) (entities.Offer, error)
}

// IEscrowTransactionRepository abstracts DynamoDB persistence for
// EscrowTransaction. UpdateStatus carries extra attribute updates (gateway
// reference, refund reference, dispute reason, transition timestamps) that
// must land in the same conditional write as the status change.

type IEscrowTransactionRepository interface {
	Create(ctx context.Context, tx entities.EscrowTransaction) (entities.EscrowTransaction, error)
	GetByID(ctx context.Context, id string) (entities.EscrowTransaction, error)
	GetByOfferID(ctx context.Context, offerID string) (entities.EscrowTransaction, error)
	UpdateStatus(ctx context.Context, id string, expected, next entities.EscrowStatus, fields map[string]string) (entities.EscrowTransaction, error)
}

// IAuditLogRepository is append-only: no update or delete operations exist.
// Append assigns the per-entity monotonic sequence; ListForEntity returns
// entries in ascending sequence order.

type IAuditLogRepository interface {
	Append(ctx context.Context, e entities.AuditLogEntry) (entities.AuditLogEntry, error)
	ListForEntity(ctx context.Context, entityID string) ([]entities.AuditLogEntry, error)
}

// IBookingSlotRepository reserves capacity on a (craftworker, date, time)
// slot. TryReserve is a single atomic conditional update: it returns false,
// without error, when the slot is already at the cap.

type IBookingSlotRepository interface {
	TryReserve(ctx context.Context, craftworkerID, date, timeOfDay string, cap int) (bool, error)
}
