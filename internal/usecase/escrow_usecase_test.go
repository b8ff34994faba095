package usecase

import (
	"context"
	"errors"
	"testing"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	mock_interfaces "mojster_trust/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

type escrowMocks struct {
	repo      *mock_interfaces.MockIEscrowTransactionRepository
	offerRepo *mock_interfaces.MockIOfferRepository
	auditRepo *mock_interfaces.MockIAuditLogRepository
	gateway   *mock_interfaces.MockIPaymentGateway
	notifier  *mock_interfaces.MockINotificationSink
}

func newEscrowUseCaseForTest(ctrl *gomock.Controller) (*EscrowUseCase, escrowMocks) {
	m := escrowMocks{
		repo:      mock_interfaces.NewMockIEscrowTransactionRepository(ctrl),
		offerRepo: mock_interfaces.NewMockIOfferRepository(ctrl),
		auditRepo: mock_interfaces.NewMockIAuditLogRepository(ctrl),
		gateway:   mock_interfaces.NewMockIPaymentGateway(ctrl),
		notifier:  mock_interfaces.NewMockINotificationSink(ctrl),
	}
	uc := NewEscrowUseCase(m.repo, m.offerRepo, m.auditRepo, m.gateway, m.notifier)
	return uc, m
}

func acceptedOffer() entities.Offer {
	return entities.Offer{
		ID:            "off-1",
		InquiryID:     "inq-1",
		CraftworkerID: "obr-1",
		PriceEstimate: 10000,
		Tier:          "start",
		Status:        entities.OfferStatusSprejeta,
	}
}

var admin = entities.Actor{ID: "adm-1", Role: entities.RoleAdmin}
var customer = entities.Actor{ID: "nar-1", Role: entities.RoleNarocnik}

func TestEscrowUseCase_Authorize_Validations(t *testing.T) {
	t.Run("empty offer id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, _ := newEscrowUseCaseForTest(ctrl)

		_, err := uc.Authorize(context.Background(), customer, " ", 10000)
		if !errors.Is(err, ErrInvalidOfferID) {
			t.Fatalf("expected ErrInvalidOfferID, got %v", err)
		}
	})

	t.Run("non-positive gross amount", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, _ := newEscrowUseCaseForTest(ctrl)

		for _, amount := range []int64{0, -1} {
			_, err := uc.Authorize(context.Background(), customer, "off-1", amount)
			if !errors.Is(err, ErrInvalidGrossAmount) {
				t.Fatalf("amount %d: expected ErrInvalidGrossAmount, got %v", amount, err)
			}
		}
	})

	t.Run("offer not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.offerRepo.EXPECT().GetByID(gomock.Any(), "off-1").Return(entities.Offer{}, nil)

		_, err := uc.Authorize(context.Background(), customer, "off-1", 10000)
		if !errors.Is(err, ErrOfferNotFound) {
			t.Fatalf("expected ErrOfferNotFound, got %v", err)
		}
	})

	t.Run("offer not accepted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		offer := acceptedOffer()
		offer.Status = entities.OfferStatusPoslana
		m.offerRepo.EXPECT().GetByID(gomock.Any(), "off-1").Return(offer, nil)

		_, err := uc.Authorize(context.Background(), customer, "off-1", 10000)
		if !errors.Is(err, ErrOfferNotAccepted) {
			t.Fatalf("expected ErrOfferNotAccepted, got %v", err)
		}
	})
}

func TestEscrowUseCase_Authorize_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	uc, m := newEscrowUseCaseForTest(ctrl)

	m.offerRepo.EXPECT().GetByID(gomock.Any(), "off-1").Return(acceptedOffer(), nil)
	m.repo.EXPECT().GetByOfferID(gomock.Any(), "off-1").Return(entities.EscrowTransaction{}, nil)
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil).AnyTimes()

	var created entities.EscrowTransaction
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx entities.EscrowTransaction) (entities.EscrowTransaction, error) {
			created = tx
			return tx, nil
		})
	m.gateway.EXPECT().CreateHold(gomock.Any(), int64(10000), "obr-1").Return("mp-42", nil)
	m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), entities.EscrowStatusPending, entities.EscrowStatusPaid, gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, _, next entities.EscrowStatus, fields map[string]string) (entities.EscrowTransaction, error) {
			created.Status = next
			created.GatewayRef = fields["gateway_ref"]
			return created, nil
		})

	tx, err := uc.Authorize(context.Background(), customer, "off-1", 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Status != entities.EscrowStatusPaid {
		t.Fatalf("expected paid, got %s", tx.Status)
	}
	if tx.PlatformFee != 1000 || tx.PayoutAmount != 9000 {
		t.Fatalf("expected fee=1000 payout=9000, got fee=%d payout=%d", tx.PlatformFee, tx.PayoutAmount)
	}
	if tx.PlatformFee+tx.PayoutAmount != tx.GrossAmount {
		t.Fatalf("commission invariant broken: %d + %d != %d", tx.PlatformFee, tx.PayoutAmount, tx.GrossAmount)
	}
	if tx.GatewayRef != "mp-42" {
		t.Fatalf("expected gateway ref mp-42, got %q", tx.GatewayRef)
	}
}

func TestEscrowUseCase_Authorize_IdempotentRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	uc, m := newEscrowUseCaseForTest(ctrl)

	existing := entities.EscrowTransaction{ID: "tx-1", OfferID: "off-1", Status: entities.EscrowStatusPaid}
	m.offerRepo.EXPECT().GetByID(gomock.Any(), "off-1").Return(acceptedOffer(), nil)
	m.repo.EXPECT().GetByOfferID(gomock.Any(), "off-1").Return(existing, nil)

	tx, err := uc.Authorize(context.Background(), customer, "off-1", 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != "tx-1" {
		t.Fatalf("expected the existing transaction back, got %+v", tx)
	}
}

func TestEscrowUseCase_Authorize_GatewayFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	uc, m := newEscrowUseCaseForTest(ctrl)

	m.offerRepo.EXPECT().GetByID(gomock.Any(), "off-1").Return(acceptedOffer(), nil)
	m.repo.EXPECT().GetByOfferID(gomock.Any(), "off-1").Return(entities.EscrowTransaction{}, nil)
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil).AnyTimes()
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx entities.EscrowTransaction) (entities.EscrowTransaction, error) { return tx, nil })
	m.gateway.EXPECT().CreateHold(gomock.Any(), int64(10000), "obr-1").Return("", errors.New("card declined"))
	m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), entities.EscrowStatusPending, entities.EscrowStatusFailed, gomock.Nil()).DoAndReturn(
		func(_ context.Context, id string, _, next entities.EscrowStatus, _ map[string]string) (entities.EscrowTransaction, error) {
			return entities.EscrowTransaction{ID: id, OfferID: "off-1", Status: next}, nil
		})

	tx, err := uc.Authorize(context.Background(), customer, "off-1", 10000)
	if !errors.Is(err, ErrGatewayFailed) {
		t.Fatalf("expected ErrGatewayFailed, got %v", err)
	}
	if tx.Status != entities.EscrowStatusFailed {
		t.Fatalf("expected failed, got %s", tx.Status)
	}
}

func TestEscrowUseCase_Authorize_GatewayTimeoutLeavesPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	uc, m := newEscrowUseCaseForTest(ctrl)

	m.offerRepo.EXPECT().GetByID(gomock.Any(), "off-1").Return(acceptedOffer(), nil)
	m.repo.EXPECT().GetByOfferID(gomock.Any(), "off-1").Return(entities.EscrowTransaction{}, nil)
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil).AnyTimes()
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx entities.EscrowTransaction) (entities.EscrowTransaction, error) { return tx, nil })
	m.gateway.EXPECT().CreateHold(gomock.Any(), int64(10000), "obr-1").Return("", context.DeadlineExceeded)
	// No UpdateStatus: the money movement's true state is unknown and must
	// be reconciled out-of-band, so the transaction stays pending.

	tx, err := uc.Authorize(context.Background(), customer, "off-1", 10000)
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("expected ErrGatewayTimeout, got %v", err)
	}
	if tx.Status != entities.EscrowStatusPending {
		t.Fatalf("expected pending, got %s", tx.Status)
	}
}

func TestEscrowUseCase_Release(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(entities.EscrowTransaction{}, nil)

		_, err := uc.Release(context.Background(), customer, "tx-1")
		if !errors.Is(err, ErrTransactionNotFound) {
			t.Fatalf("expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("already released is a no-op, not a duplicate capture", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusReleased}, nil)

		tx, err := uc.Release(context.Background(), customer, "tx-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusReleased {
			t.Fatalf("expected released, got %s", tx.Status)
		}
	})

	t.Run("success from paid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		paid := entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusPaid, GatewayRef: "mp-42"}
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(paid, nil)
		m.gateway.EXPECT().Capture(gomock.Any(), "mp-42").Return(nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), "tx-1", entities.EscrowStatusPaid, entities.EscrowStatusReleased, gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, _, next entities.EscrowStatus, _ map[string]string) (entities.EscrowTransaction, error) {
				paid.Status = next
				return paid, nil
			})
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil)
		m.notifier.EXPECT().NotifyTransition(gomock.Any(), "escrow_transaction", "tx-1", "released").Return(nil)

		tx, err := uc.Release(context.Background(), customer, "tx-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusReleased {
			t.Fatalf("expected released, got %s", tx.Status)
		}
	})

	t.Run("gateway failure leaves the transaction paid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		paid := entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusPaid, GatewayRef: "mp-42"}
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(paid, nil)
		m.gateway.EXPECT().Capture(gomock.Any(), "mp-42").Return(errors.New("transfer rejected"))
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil)

		tx, err := uc.Release(context.Background(), customer, "tx-1")
		if !errors.Is(err, ErrGatewayFailed) {
			t.Fatalf("expected ErrGatewayFailed, got %v", err)
		}
		if tx.Status != entities.EscrowStatusPaid {
			t.Fatalf("expected paid, got %s", tx.Status)
		}
	})

	t.Run("terminal state rejected with distinct error kind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusRefunded}, nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil)

		_, err := uc.Release(context.Background(), customer, "tx-1")
		var terminal *statemachine.TerminalStateError
		if !errors.As(err, &terminal) {
			t.Fatalf("expected TerminalStateError, got %v", err)
		}
	})
}

func TestEscrowUseCase_Refund(t *testing.T) {
	t.Run("requires admin role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, _ := newEscrowUseCaseForTest(ctrl)

		_, err := uc.Refund(context.Background(), customer, "tx-1", "no-show", 0)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("partial amount above gross rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(entities.EscrowTransaction{ID: "tx-1", GrossAmount: 10000, Status: entities.EscrowStatusPaid}, nil)

		_, err := uc.Refund(context.Background(), admin, "tx-1", "overcharge", 10001)
		if !errors.Is(err, ErrInvalidRefundAmount) {
			t.Fatalf("expected ErrInvalidRefundAmount, got %v", err)
		}
	})

	t.Run("already refunded is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusRefunded}, nil)

		tx, err := uc.Refund(context.Background(), admin, "tx-1", "again", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusRefunded {
			t.Fatalf("expected refunded, got %s", tx.Status)
		}
	})

	t.Run("success from disputed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		disputed := entities.EscrowTransaction{ID: "tx-1", GrossAmount: 10000, Status: entities.EscrowStatusDisputed, GatewayRef: "mp-42"}
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(disputed, nil)
		m.gateway.EXPECT().Cancel(gomock.Any(), "mp-42", "no-show").Return("rf-7", nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), "tx-1", entities.EscrowStatusDisputed, entities.EscrowStatusRefunded, gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, _, next entities.EscrowStatus, fields map[string]string) (entities.EscrowTransaction, error) {
				disputed.Status = next
				disputed.RefundRef = fields["refund_ref"]
				return disputed, nil
			})
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil)
		m.notifier.EXPECT().NotifyTransition(gomock.Any(), "escrow_transaction", "tx-1", "refunded").Return(nil)

		tx, err := uc.Refund(context.Background(), admin, "tx-1", "no-show", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusRefunded || tx.RefundRef != "rf-7" {
			t.Fatalf("unexpected transaction: %+v", tx)
		}
	})
}

func TestEscrowUseCase_Dispute(t *testing.T) {
	t.Run("reason required", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, _ := newEscrowUseCaseForTest(ctrl)

		_, err := uc.Dispute(context.Background(), customer, "tx-1", "  ")
		if !errors.Is(err, ErrDisputeReasonRequired) {
			t.Fatalf("expected ErrDisputeReasonRequired, got %v", err)
		}
	})

	t.Run("moves no money", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		paid := entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusPaid}
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(paid, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), "tx-1", entities.EscrowStatusPaid, entities.EscrowStatusDisputed, gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, _, next entities.EscrowStatus, fields map[string]string) (entities.EscrowTransaction, error) {
				paid.Status = next
				paid.DisputeReason = fields["dispute_reason"]
				return paid, nil
			})
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil)
		m.notifier.EXPECT().NotifyTransition(gomock.Any(), "escrow_transaction", "tx-1", "disputed").Return(nil)

		tx, err := uc.Dispute(context.Background(), customer, "tx-1", "no-show")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusDisputed || tx.DisputeReason != "no-show" {
			t.Fatalf("unexpected transaction: %+v", tx)
		}
	})

	t.Run("invalid from pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusPending}, nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil)

		_, err := uc.Dispute(context.Background(), customer, "tx-1", "no-show")
		var invalid *statemachine.InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
	})
}

func TestEscrowUseCase_ResolveDispute(t *testing.T) {
	t.Run("requires admin role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, _ := newEscrowUseCaseForTest(ctrl)

		_, err := uc.ResolveDispute(context.Background(), customer, "tx-1", ResolveOutcomeRefund)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("invalid outcome", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, _ := newEscrowUseCaseForTest(ctrl)

		_, err := uc.ResolveDispute(context.Background(), admin, "tx-1", "split")
		if !errors.Is(err, ErrInvalidResolveOutcome) {
			t.Fatalf("expected ErrInvalidResolveOutcome, got %v", err)
		}
	})

	t.Run("release outcome re-enters the release path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		disputed := entities.EscrowTransaction{ID: "tx-1", Status: entities.EscrowStatusDisputed, GatewayRef: "mp-42"}
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(disputed, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), "tx-1", entities.EscrowStatusDisputed, entities.EscrowStatusPaid, gomock.Nil()).Return(entities.EscrowTransaction{}, nil)
		paid := disputed
		paid.Status = entities.EscrowStatusPaid
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(paid, nil)
		m.gateway.EXPECT().Capture(gomock.Any(), "mp-42").Return(nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), "tx-1", entities.EscrowStatusPaid, entities.EscrowStatusReleased, gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, _, next entities.EscrowStatus, _ map[string]string) (entities.EscrowTransaction, error) {
				paid.Status = next
				return paid, nil
			})
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil).AnyTimes()
		m.notifier.EXPECT().NotifyTransition(gomock.Any(), "escrow_transaction", "tx-1", "released").Return(nil)

		tx, err := uc.ResolveDispute(context.Background(), admin, "tx-1", ResolveOutcomeRelease)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusReleased {
			t.Fatalf("expected released, got %s", tx.Status)
		}
	})

	t.Run("refund outcome then release fails terminally", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc, m := newEscrowUseCaseForTest(ctrl)

		disputed := entities.EscrowTransaction{ID: "tx-1", GrossAmount: 10000, Status: entities.EscrowStatusDisputed, GatewayRef: "mp-42", DisputeReason: "no-show"}
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(disputed, nil).Times(2)
		m.gateway.EXPECT().Cancel(gomock.Any(), "mp-42", "no-show").Return("rf-7", nil)
		refunded := disputed
		m.repo.EXPECT().UpdateStatus(gomock.Any(), "tx-1", entities.EscrowStatusDisputed, entities.EscrowStatusRefunded, gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, _, next entities.EscrowStatus, _ map[string]string) (entities.EscrowTransaction, error) {
				refunded.Status = next
				return refunded, nil
			})
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entities.AuditLogEntry{}, nil).AnyTimes()
		m.notifier.EXPECT().NotifyTransition(gomock.Any(), "escrow_transaction", "tx-1", "refunded").Return(nil)

		tx, err := uc.ResolveDispute(context.Background(), admin, "tx-1", ResolveOutcomeRefund)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != entities.EscrowStatusRefunded {
			t.Fatalf("expected refunded, got %s", tx.Status)
		}

		// A later release attempt on the refunded transaction must fail as a
		// terminal-state violation, not move money.
		m.repo.EXPECT().GetByID(gomock.Any(), "tx-1").Return(refunded, nil)
		_, err = uc.Release(context.Background(), admin, "tx-1")
		var terminal *statemachine.TerminalStateError
		if !errors.As(err, &terminal) {
			t.Fatalf("expected TerminalStateError, got %v", err)
		}
	})
}
