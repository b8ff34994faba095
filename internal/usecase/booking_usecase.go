package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	"mojster_trust/internal/usecase/interfaces"

	"go.uber.org/zap"
)

var (
	ErrInvalidSlot = errors.New("invalid booking slot")
)

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"
)

// BookingInput identifies the slot and, optionally, the inquiry the booking
// belongs to.

type BookingInput struct {
	CraftworkerID string
	Date          string
	Time          string
	InquiryID     string
}

// BookingResult reports whether the reservation was admitted. A full slot is
// a normal outcome, not an error.

type BookingResult struct {
	Accepted bool
}

// IBookingUseCase arbitrates concurrent bookings on a
// (craftworker, date, time) slot under a bounded cap.

type IBookingUseCase interface {
	TryBook(ctx context.Context, actor entities.Actor, in BookingInput) (BookingResult, error)
}

type BookingUseCase struct {
	slots       interfaces.IBookingSlotRepository
	inquiryRepo interfaces.IInquiryRepository
	audit       auditWriter
	cap         int
}

var _ IBookingUseCase = (*BookingUseCase)(nil)

func NewBookingUseCase(slots interfaces.IBookingSlotRepository, inquiryRepo interfaces.IInquiryRepository, auditRepo interfaces.IAuditLogRepository) *BookingUseCase {
	return &BookingUseCase{
		slots:       slots,
		inquiryRepo: inquiryRepo,
		audit:       auditWriter{repo: auditRepo},
		cap:         slotCapFromEnv(),
	}
}

func (u *BookingUseCase) TryBook(ctx context.Context, actor entities.Actor, in BookingInput) (BookingResult, error) {
	in.CraftworkerID = strings.TrimSpace(in.CraftworkerID)
	if in.CraftworkerID == "" {
		return BookingResult{}, ErrInvalidSlot
	}
	if _, err := time.Parse(slotDateLayout, in.Date); err != nil {
		return BookingResult{}, ErrInvalidSlot
	}
	if _, err := time.Parse(slotTimeLayout, in.Time); err != nil {
		return BookingResult{}, ErrInvalidSlot
	}

	// The cap check and the increment are one conditional write in the
	// store; two concurrent requests at cap-1 cannot both pass.
	accepted, err := u.slots.TryReserve(ctx, in.CraftworkerID, in.Date, in.Time, u.cap)
	if err != nil {
		return BookingResult{}, err
	}
	slotKey := in.CraftworkerID + "#" + in.Date + "#" + in.Time
	if !accepted {
		zap.S().Infof("[booking][usecase] slot full craftworker=%s date=%s time=%s", in.CraftworkerID, in.Date, in.Time)
		return BookingResult{Accepted: false}, nil
	}
	u.audit.record(ctx, "booking_slot", slotKey, "", "reserved", actor, map[string]string{
		"cap": strconv.Itoa(u.cap),
	})

	if in.InquiryID != "" {
		if err := u.advanceInquiry(ctx, actor, in.InquiryID); err != nil {
			return BookingResult{Accepted: true}, err
		}
	}

	zap.S().Infof("[booking][usecase] reserved craftworker=%s date=%s time=%s actor=%s", in.CraftworkerID, in.Date, in.Time, actor.ID)
	return BookingResult{Accepted: true}, nil
}

// advanceInquiry moves the linked inquiry one step toward acceptance:
// pending becomes offer_received, offer_received becomes accepted.
func (u *BookingUseCase) advanceInquiry(ctx context.Context, actor entities.Actor, inquiryID string) error {
	inquiry, err := u.inquiryRepo.GetByID(ctx, inquiryID)
	if err != nil {
		return err
	}
	if inquiry.ID == "" {
		return ErrInquiryNotFound
	}

	var target entities.InquiryStatus
	switch inquiry.Status {
	case entities.InquiryStatusPending:
		target = entities.InquiryStatusOfferReceived
	case entities.InquiryStatusOfferReceived:
		target = entities.InquiryStatusAccepted
	case entities.InquiryStatusAccepted:
		return nil
	default:
		err := statemachine.AssertTransition(statemachine.EntityInquiry, inquiryID, string(inquiry.Status), string(entities.InquiryStatusAccepted))
		if err != nil {
			u.audit.recordRejected(ctx, inquiryEntityType, inquiryID, string(inquiry.Status), string(entities.InquiryStatusAccepted), actor, err)
			return err
		}
		return nil
	}

	if _, err := u.inquiryRepo.UpdateStatus(ctx, inquiryID, inquiry.Status, target); err != nil {
		if errors.Is(err, entities.ErrConcurrencyConflict) {
			current, gerr := u.inquiryRepo.GetByID(ctx, inquiryID)
			if gerr == nil && current.Status == target {
				return nil
			}
		}
		return err
	}
	u.audit.record(ctx, inquiryEntityType, inquiryID, string(inquiry.Status), string(target), actor, nil)
	return nil
}

func slotCapFromEnv() int {
	n, err := strconv.Atoi(getenvDefault("BOOKING_SLOT_CAP", strconv.Itoa(entities.DefaultSlotCap)))
	if err != nil || n <= 0 {
		return entities.DefaultSlotCap
	}
	return n
}
