package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mojster_trust/internal/domain/commission"
	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTransactionNotFound   = errors.New("escrow transaction not found")
	ErrInvalidTransactionID  = errors.New("invalid transaction id")
	ErrOfferNotAccepted      = errors.New("offer not accepted")
	ErrInvalidGrossAmount    = errors.New("gross amount must be a positive integer in minor units")
	ErrInvalidRefundAmount   = errors.New("refund amount must not exceed the gross amount")
	ErrDisputeReasonRequired = errors.New("dispute reason required")
	ErrInvalidResolveOutcome = errors.New("resolve outcome must be release or refund")
	ErrForbidden             = errors.New("actor not allowed to perform this operation")
	ErrGatewayFailed         = errors.New("payment gateway failure")
	ErrGatewayTimeout        = errors.New("payment gateway timeout, outcome unknown")
)

// Resolve outcomes accepted by ResolveDispute.
const (
	ResolveOutcomeRelease = "release"
	ResolveOutcomeRefund  = "refund"
)

const escrowEntityType = string(statemachine.EntityEscrow)

// Repository field keys understood by IEscrowTransactionRepository.UpdateStatus.
const (
	fieldGatewayRef    = "gateway_ref"
	fieldRefundRef     = "refund_ref"
	fieldDisputeReason = "dispute_reason"
	fieldPaidAt        = "paid_at"
	fieldDisputedAt    = "disputed_at"
	fieldReleasedAt    = "released_at"
	fieldRefundedAt    = "refunded_at"
)

// IEscrowUseCase is the orchestrator for escrow-held payments.
//
// Every mutating call follows the same discipline: transition check first,
// then the gateway call, then the conditional persist, with an audit entry
// for each attempt including the failed ones. The stored status can never
// imply a money movement that did not happen.

type IEscrowUseCase interface {
	Authorize(ctx context.Context, actor entities.Actor, offerID string, grossAmount int64) (entities.EscrowTransaction, error)
	Release(ctx context.Context, actor entities.Actor, transactionID string) (entities.EscrowTransaction, error)
	Refund(ctx context.Context, actor entities.Actor, transactionID, reason string, amount int64) (entities.EscrowTransaction, error)
	Dispute(ctx context.Context, actor entities.Actor, transactionID, reason string) (entities.EscrowTransaction, error)
	ResolveDispute(ctx context.Context, actor entities.Actor, transactionID, outcome string) (entities.EscrowTransaction, error)
	ListAudit(ctx context.Context, transactionID string) ([]entities.AuditLogEntry, error)
}

type EscrowUseCase struct {
	repo      interfaces.IEscrowTransactionRepository
	offerRepo interfaces.IOfferRepository
	gateway   interfaces.IPaymentGateway
	notifier  interfaces.INotificationSink
	audit     auditWriter

	gatewayTimeout time.Duration
}

var _ IEscrowUseCase = (*EscrowUseCase)(nil)

const defaultGatewayTimeout = 10 * time.Second

func NewEscrowUseCase(repo interfaces.IEscrowTransactionRepository, offerRepo interfaces.IOfferRepository, auditRepo interfaces.IAuditLogRepository, gateway interfaces.IPaymentGateway, notifier interfaces.INotificationSink) *EscrowUseCase {
	return &EscrowUseCase{
		repo:           repo,
		offerRepo:      offerRepo,
		gateway:        gateway,
		notifier:       notifier,
		audit:          auditWriter{repo: auditRepo},
		gatewayTimeout: gatewayTimeoutFromEnv(),
	}
}

func (u *EscrowUseCase) Authorize(ctx context.Context, actor entities.Actor, offerID string, grossAmount int64) (entities.EscrowTransaction, error) {
	offerID = strings.TrimSpace(offerID)
	if offerID == "" {
		return entities.EscrowTransaction{}, ErrInvalidOfferID
	}
	if grossAmount <= 0 {
		return entities.EscrowTransaction{}, ErrInvalidGrossAmount
	}
	if u.gateway == nil {
		return entities.EscrowTransaction{}, errors.New("payment gateway not configured")
	}
	zap.S().Infof("[escrow][usecase] authorize start offer_id=%s gross=%d actor=%s", offerID, grossAmount, actor.ID)

	offer, err := u.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	if offer.ID == "" {
		return entities.EscrowTransaction{}, ErrOfferNotFound
	}
	if offer.Status != entities.OfferStatusSprejeta {
		return entities.EscrowTransaction{}, ErrOfferNotAccepted
	}

	// One escrow transaction per offer; a retry finds the existing one and
	// returns it instead of charging twice.
	if existing, err := u.repo.GetByOfferID(ctx, offerID); err != nil {
		return entities.EscrowTransaction{}, err
	} else if existing.ID != "" {
		zap.S().Infof("[escrow][usecase] authorize idempotent hit offer_id=%s transaction_id=%s status=%s", offerID, existing.ID, existing.Status)
		return existing, nil
	}

	rateBP, err := commission.RateBasisPoints(commission.Tier(offer.Tier))
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	split, err := commission.ComputeSplit(grossAmount, commission.Tier(offer.Tier))
	if err != nil {
		return entities.EscrowTransaction{}, err
	}

	now := time.Now().UTC()
	tx := entities.EscrowTransaction{
		ID:               uuid.NewString(),
		OfferID:          offerID,
		GrossAmount:      grossAmount,
		CommissionRateBP: rateBP,
		PlatformFee:      split.PlatformFee,
		PayoutAmount:     split.Payout,
		Status:           entities.EscrowStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err := u.repo.Create(ctx, tx)
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	u.audit.record(ctx, escrowEntityType, created.ID, "", string(entities.EscrowStatusPending), actor, map[string]string{
		metaGrossAmount:  strconv.FormatInt(grossAmount, 10),
		metaPlatformFee:  strconv.FormatInt(split.PlatformFee, 10),
		metaPayoutAmount: strconv.FormatInt(split.Payout, 10),
		metaRateBP:       strconv.FormatInt(rateBP, 10),
	})

	gctx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()
	gatewayRef, err := u.gateway.CreateHold(gctx, grossAmount, offer.CraftworkerID)
	if err != nil {
		if isGatewayTimeout(err) {
			// Outcome unknown: leave the transaction pending for the
			// reconciliation path, never assume the hold was created.
			zap.S().Warnf("[escrow][usecase] authorize gateway timeout transaction_id=%s err=%v", created.ID, err)
			u.audit.record(ctx, escrowEntityType, created.ID, string(entities.EscrowStatusPending), string(entities.EscrowStatusPending), actor, map[string]string{
				metaOutcome: outcomeGatewayTimeout,
				metaError:   err.Error(),
			})
			return created, ErrGatewayTimeout
		}
		zap.S().Warnf("[escrow][usecase] authorize gateway failed transaction_id=%s err=%v", created.ID, err)
		failed, uerr := u.repo.UpdateStatus(ctx, created.ID, entities.EscrowStatusPending, entities.EscrowStatusFailed, nil)
		if uerr != nil {
			zap.S().Errorf("[escrow][usecase] authorize failed-path persist error transaction_id=%s err=%v", created.ID, uerr)
			failed = created
		}
		u.audit.record(ctx, escrowEntityType, created.ID, string(entities.EscrowStatusPending), string(entities.EscrowStatusFailed), actor, map[string]string{
			metaOutcome: outcomeGatewayError,
			metaError:   err.Error(),
		})
		return failed, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	paid, err := u.repo.UpdateStatus(ctx, created.ID, entities.EscrowStatusPending, entities.EscrowStatusPaid, map[string]string{
		fieldGatewayRef: gatewayRef,
		fieldPaidAt:     now.Format(time.RFC3339Nano),
	})
	if err != nil {
		zap.S().Errorf("[escrow][usecase] authorize persist after hold failed transaction_id=%s gateway_ref=%s err=%v", created.ID, gatewayRef, err)
		u.audit.record(ctx, escrowEntityType, created.ID, string(entities.EscrowStatusPending), string(entities.EscrowStatusPaid), actor, map[string]string{
			metaOutcome:    outcomeConflictAfterEffect,
			metaGatewayRef: gatewayRef,
			metaError:      err.Error(),
		})
		return entities.EscrowTransaction{}, err
	}
	u.audit.record(ctx, escrowEntityType, paid.ID, string(entities.EscrowStatusPending), string(entities.EscrowStatusPaid), actor, map[string]string{
		metaGatewayRef: gatewayRef,
	})
	zap.S().Infof("[escrow][usecase] authorize success transaction_id=%s offer_id=%s gateway_ref=%s", paid.ID, offerID, gatewayRef)
	return paid, nil
}

func (u *EscrowUseCase) Release(ctx context.Context, actor entities.Actor, transactionID string) (entities.EscrowTransaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return entities.EscrowTransaction{}, ErrInvalidTransactionID
	}

	tx, err := u.repo.GetByID(ctx, transactionID)
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	if tx.ID == "" {
		return entities.EscrowTransaction{}, ErrTransactionNotFound
	}
	if tx.Status == entities.EscrowStatusReleased {
		// Idempotent retry: already released, no duplicate capture.
		zap.S().Infof("[escrow][usecase] release no-op transaction_id=%s", transactionID)
		return tx, nil
	}

	if err := statemachine.AssertTransition(statemachine.EntityEscrow, transactionID, string(tx.Status), string(entities.EscrowStatusReleased)); err != nil {
		u.audit.recordRejected(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusReleased), actor, err)
		return entities.EscrowTransaction{}, err
	}

	gctx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()
	if err := u.gateway.Capture(gctx, tx.GatewayRef); err != nil {
		// The transaction stays paid; this call does not retry on its own.
		outcome := outcomeGatewayError
		retErr := fmt.Errorf("%w: %v", ErrGatewayFailed, err)
		if isGatewayTimeout(err) {
			outcome = outcomeGatewayTimeout
			retErr = ErrGatewayTimeout
		}
		zap.S().Warnf("[escrow][usecase] release gateway %s transaction_id=%s err=%v", outcome, transactionID, err)
		u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(tx.Status), actor, map[string]string{
			metaOutcome:         outcome,
			metaAttemptedTarget: string(entities.EscrowStatusReleased),
			metaError:           err.Error(),
		})
		return tx, retErr
	}

	released, err := u.repo.UpdateStatus(ctx, transactionID, tx.Status, entities.EscrowStatusReleased, map[string]string{
		fieldReleasedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		zap.S().Errorf("[escrow][usecase] release persist after capture failed transaction_id=%s err=%v", transactionID, err)
		u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusReleased), actor, map[string]string{
			metaOutcome:    outcomeConflictAfterEffect,
			metaGatewayRef: tx.GatewayRef,
			metaError:      err.Error(),
		})
		return entities.EscrowTransaction{}, err
	}
	u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusReleased), actor, map[string]string{
		metaGatewayRef: tx.GatewayRef,
	})
	u.notifyTransition(ctx, transactionID, string(entities.EscrowStatusReleased))
	zap.S().Infof("[escrow][usecase] release success transaction_id=%s", transactionID)
	return released, nil
}

func (u *EscrowUseCase) Refund(ctx context.Context, actor entities.Actor, transactionID, reason string, amount int64) (entities.EscrowTransaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return entities.EscrowTransaction{}, ErrInvalidTransactionID
	}
	if !actor.IsAdmin() {
		return entities.EscrowTransaction{}, ErrForbidden
	}

	tx, err := u.repo.GetByID(ctx, transactionID)
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	if tx.ID == "" {
		return entities.EscrowTransaction{}, ErrTransactionNotFound
	}
	if tx.Status == entities.EscrowStatusRefunded {
		zap.S().Infof("[escrow][usecase] refund no-op transaction_id=%s", transactionID)
		return tx, nil
	}
	if amount < 0 || amount > tx.GrossAmount {
		return entities.EscrowTransaction{}, ErrInvalidRefundAmount
	}
	requested := amount
	if requested == 0 {
		requested = tx.GrossAmount
	}

	if err := statemachine.AssertTransition(statemachine.EntityEscrow, transactionID, string(tx.Status), string(entities.EscrowStatusRefunded)); err != nil {
		u.audit.recordRejected(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusRefunded), actor, err)
		return entities.EscrowTransaction{}, err
	}

	gctx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()
	refundRef, err := u.gateway.Cancel(gctx, tx.GatewayRef, reason)
	if err != nil {
		outcome := outcomeGatewayError
		retErr := fmt.Errorf("%w: %v", ErrGatewayFailed, err)
		if isGatewayTimeout(err) {
			outcome = outcomeGatewayTimeout
			retErr = ErrGatewayTimeout
		}
		zap.S().Warnf("[escrow][usecase] refund gateway %s transaction_id=%s err=%v", outcome, transactionID, err)
		u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(tx.Status), actor, map[string]string{
			metaOutcome:         outcome,
			metaAttemptedTarget: string(entities.EscrowStatusRefunded),
			metaReason:          reason,
			metaError:           err.Error(),
		})
		return tx, retErr
	}

	fields := map[string]string{
		fieldRefundRef:  refundRef,
		fieldRefundedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if reason != "" {
		fields[fieldDisputeReason] = reason
	}
	refunded, err := u.repo.UpdateStatus(ctx, transactionID, tx.Status, entities.EscrowStatusRefunded, fields)
	if err != nil {
		zap.S().Errorf("[escrow][usecase] refund persist after cancel failed transaction_id=%s refund_ref=%s err=%v", transactionID, refundRef, err)
		u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusRefunded), actor, map[string]string{
			metaOutcome:   outcomeConflictAfterEffect,
			metaRefundRef: refundRef,
			metaError:     err.Error(),
		})
		return entities.EscrowTransaction{}, err
	}
	// Cancel voids the whole hold, so the refunded figure is the gross
	// amount even when the request asked for less.
	u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusRefunded), actor, map[string]string{
		metaReason:          reason,
		metaRefundRef:       refundRef,
		metaRequestedAmount: strconv.FormatInt(requested, 10),
		metaRefundedAmount:  strconv.FormatInt(tx.GrossAmount, 10),
	})
	u.notifyTransition(ctx, transactionID, string(entities.EscrowStatusRefunded))
	zap.S().Infof("[escrow][usecase] refund success transaction_id=%s refund_ref=%s", transactionID, refundRef)
	return refunded, nil
}

func (u *EscrowUseCase) Dispute(ctx context.Context, actor entities.Actor, transactionID, reason string) (entities.EscrowTransaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return entities.EscrowTransaction{}, ErrInvalidTransactionID
	}
	if strings.TrimSpace(reason) == "" {
		return entities.EscrowTransaction{}, ErrDisputeReasonRequired
	}

	tx, err := u.repo.GetByID(ctx, transactionID)
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	if tx.ID == "" {
		return entities.EscrowTransaction{}, ErrTransactionNotFound
	}
	if tx.Status == entities.EscrowStatusDisputed {
		return tx, nil
	}

	if err := statemachine.AssertTransition(statemachine.EntityEscrow, transactionID, string(tx.Status), string(entities.EscrowStatusDisputed)); err != nil {
		u.audit.recordRejected(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusDisputed), actor, err)
		return entities.EscrowTransaction{}, err
	}

	// Disputing moves no money; it only flags the transaction for admin
	// review, so there is no gateway call here.
	disputed, err := u.repo.UpdateStatus(ctx, transactionID, tx.Status, entities.EscrowStatusDisputed, map[string]string{
		fieldDisputeReason: reason,
		fieldDisputedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusDisputed), actor, map[string]string{
		metaReason: reason,
	})
	u.notifyTransition(ctx, transactionID, string(entities.EscrowStatusDisputed))
	zap.S().Infof("[escrow][usecase] dispute opened transaction_id=%s", transactionID)
	return disputed, nil
}

func (u *EscrowUseCase) ResolveDispute(ctx context.Context, actor entities.Actor, transactionID, outcome string) (entities.EscrowTransaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return entities.EscrowTransaction{}, ErrInvalidTransactionID
	}
	if !actor.IsAdmin() {
		return entities.EscrowTransaction{}, ErrForbidden
	}

	switch outcome {
	case ResolveOutcomeRefund:
		tx, err := u.repo.GetByID(ctx, transactionID)
		if err != nil {
			return entities.EscrowTransaction{}, err
		}
		if tx.ID == "" {
			return entities.EscrowTransaction{}, ErrTransactionNotFound
		}
		reason := tx.DisputeReason
		if reason == "" {
			reason = "dispute resolved"
		}
		return u.Refund(ctx, actor, transactionID, reason, 0)

	case ResolveOutcomeRelease:
		tx, err := u.repo.GetByID(ctx, transactionID)
		if err != nil {
			return entities.EscrowTransaction{}, err
		}
		if tx.ID == "" {
			return entities.EscrowTransaction{}, ErrTransactionNotFound
		}
		if err := statemachine.AssertTransition(statemachine.EntityEscrow, transactionID, string(tx.Status), string(entities.EscrowStatusPaid)); err != nil {
			u.audit.recordRejected(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusPaid), actor, err)
			return entities.EscrowTransaction{}, err
		}
		if _, err := u.repo.UpdateStatus(ctx, transactionID, tx.Status, entities.EscrowStatusPaid, nil); err != nil {
			return entities.EscrowTransaction{}, err
		}
		u.audit.record(ctx, escrowEntityType, transactionID, string(tx.Status), string(entities.EscrowStatusPaid), actor, map[string]string{
			metaOutcome: "dispute_resolved_release",
		})
		return u.Release(ctx, actor, transactionID)

	default:
		return entities.EscrowTransaction{}, ErrInvalidResolveOutcome
	}
}

func (u *EscrowUseCase) ListAudit(ctx context.Context, transactionID string) ([]entities.AuditLogEntry, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, ErrInvalidTransactionID
	}
	return u.audit.repo.ListForEntity(ctx, transactionID)
}

func (u *EscrowUseCase) notifyTransition(ctx context.Context, transactionID, status string) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifyTransition(ctx, escrowEntityType, transactionID, status); err != nil {
		// Notification failures never roll back a committed transition.
		zap.S().Warnf("[escrow][usecase] notify failed transaction_id=%s status=%s err=%v", transactionID, status, err)
	}
}

func isGatewayTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func gatewayTimeoutFromEnv() time.Duration {
	ms, err := strconv.Atoi(getenvDefault("GATEWAY_TIMEOUT_MS", "10000"))
	if err != nil || ms <= 0 {
		return defaultGatewayTimeout
	}
	return time.Duration(ms) * time.Millisecond
}
