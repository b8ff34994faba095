package usecase

import (
	"context"
	"time"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Metadata keys shared across audit entries.
const (
	metaOutcome         = "outcome"
	metaError           = "error"
	metaGatewayRef      = "gateway_ref"
	metaRefundRef       = "refund_ref"
	metaReason          = "reason"
	metaGrossAmount     = "gross_amount"
	metaPlatformFee     = "platform_fee"
	metaPayoutAmount    = "payout_amount"
	metaRateBP          = "commission_rate_bp"
	metaRequestedAmount = "requested_amount"
	metaRefundedAmount  = "refunded_amount"
	metaAttemptedTarget = "attempted_target"
)

// Audit outcomes for attempts that did not commit a transition.
const (
	outcomeGatewayError        = "gateway_error"
	outcomeGatewayTimeout      = "gateway_timeout"
	outcomeTransitionRejected  = "transition_rejected"
	outcomeConflictAfterEffect = "conflict_after_gateway_effect"
)

// auditWriter appends immutable audit entries. It never updates or deletes.
// Append failures are logged and do not roll back transitions that already
// committed; the gateway effect, if any, has already happened.

type auditWriter struct {
	repo interfaces.IAuditLogRepository
}

func (w auditWriter) record(ctx context.Context, entityType, entityID, fromStatus, toStatus string, actor entities.Actor, metadata map[string]string) {
	if w.repo == nil {
		return
	}
	entry := entities.AuditLogEntry{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := w.repo.Append(ctx, entry); err != nil {
		zap.S().Errorf("[audit][usecase] append failed entity_type=%s entity_id=%s from=%s to=%s err=%v", entityType, entityID, fromStatus, toStatus, err)
	}
}

// recordRejected writes the audit entry for a transition attempt that was
// refused before any money moved.
func (w auditWriter) recordRejected(ctx context.Context, entityType, entityID, currentStatus, attemptedTarget string, actor entities.Actor, cause error) {
	w.record(ctx, entityType, entityID, currentStatus, currentStatus, actor, map[string]string{
		metaOutcome:         outcomeTransitionRejected,
		metaAttemptedTarget: attemptedTarget,
		metaError:           cause.Error(),
	})
}
