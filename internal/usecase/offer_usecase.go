package usecase

import (
	"context"
	"errors"
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
	ErrOfferNotFound     = errors.New("offer not found")
	ErrInvalidOfferID    = errors.New("invalid offer id")
	ErrInvalidOfferPrice = errors.New("offer price must be a positive integer in minor units")
	ErrInquiryNotOpen    = errors.New("inquiry does not accept offers")
)

const (
	offerEntityType   = string(statemachine.EntityOffer)
	inquiryEntityType = string(statemachine.EntityInquiry)
)

// IOfferUseCase covers the craftworker bid lifecycle: create a bid against
// an inquiry, and let the inquiry owner accept or reject it.

type IOfferUseCase interface {
	CreateOffer(ctx context.Context, actor entities.Actor, inquiryID string, priceEstimate int64) (entities.Offer, error)
	AcceptOffer(ctx context.Context, actor entities.Actor, offerID string) (entities.Offer, error)
	RejectOffer(ctx context.Context, actor entities.Actor, offerID string) (entities.Offer, error)
}

type OfferUseCase struct {
	repo        interfaces.IOfferRepository
	inquiryRepo interfaces.IInquiryRepository
	audit       auditWriter
}

var _ IOfferUseCase = (*OfferUseCase)(nil)

func NewOfferUseCase(repo interfaces.IOfferRepository, inquiryRepo interfaces.IInquiryRepository, auditRepo interfaces.IAuditLogRepository) *OfferUseCase {
	return &OfferUseCase{repo: repo, inquiryRepo: inquiryRepo, audit: auditWriter{repo: auditRepo}}
}

func (u *OfferUseCase) CreateOffer(ctx context.Context, actor entities.Actor, inquiryID string, priceEstimate int64) (entities.Offer, error) {
	inquiryID = strings.TrimSpace(inquiryID)
	if inquiryID == "" {
		return entities.Offer{}, ErrInvalidInquiryID
	}
	if priceEstimate <= 0 {
		return entities.Offer{}, ErrInvalidOfferPrice
	}
	if actor.Role != entities.RoleObrtnik {
		return entities.Offer{}, ErrForbidden
	}

	// The craftworker's subscription tier is snapshotted onto the offer so
	// the commission rate of an in-flight deal never changes retroactively.
	tier := actor.Tier
	if tier == "" {
		tier = string(commission.TierStart)
	}
	if _, err := commission.RateBasisPoints(commission.Tier(tier)); err != nil {
		return entities.Offer{}, err
	}

	inquiry, err := u.inquiryRepo.GetByID(ctx, inquiryID)
	if err != nil {
		return entities.Offer{}, err
	}
	if inquiry.ID == "" {
		return entities.Offer{}, ErrInquiryNotFound
	}

	switch inquiry.Status {
	case entities.InquiryStatusPending:
		if _, err := u.inquiryRepo.UpdateStatus(ctx, inquiryID, entities.InquiryStatusPending, entities.InquiryStatusOfferReceived); err != nil {
			if !errors.Is(err, entities.ErrConcurrencyConflict) {
				return entities.Offer{}, err
			}
			// Lost the race: fine if another offer got there first.
			current, gerr := u.inquiryRepo.GetByID(ctx, inquiryID)
			if gerr != nil {
				return entities.Offer{}, gerr
			}
			if current.Status != entities.InquiryStatusOfferReceived {
				return entities.Offer{}, err
			}
		} else {
			u.audit.record(ctx, inquiryEntityType, inquiryID, string(entities.InquiryStatusPending), string(entities.InquiryStatusOfferReceived), actor, nil)
		}
	case entities.InquiryStatusOfferReceived:
		// Additional offers are allowed while the inquiry is open.
	default:
		return entities.Offer{}, ErrInquiryNotOpen
	}

	now := time.Now().UTC()
	offer := entities.Offer{
		ID:            uuid.NewString(),
		InquiryID:     inquiryID,
		CraftworkerID: actor.ID,
		PriceEstimate: priceEstimate,
		Tier:          tier,
		Status:        entities.OfferStatusPoslana,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := u.repo.Create(ctx, offer)
	if err != nil {
		return entities.Offer{}, err
	}
	u.audit.record(ctx, offerEntityType, created.ID, "", string(entities.OfferStatusPoslana), actor, map[string]string{
		"inquiry_id": inquiryID,
		"price":      strconv.FormatInt(priceEstimate, 10),
		"tier":       tier,
	})
	zap.S().Infof("[offer][usecase] create success offer_id=%s inquiry_id=%s craftworker=%s", created.ID, inquiryID, actor.ID)
	return created, nil
}

func (u *OfferUseCase) AcceptOffer(ctx context.Context, actor entities.Actor, offerID string) (entities.Offer, error) {
	return u.decideOffer(ctx, actor, offerID, entities.OfferStatusSprejeta)
}

func (u *OfferUseCase) RejectOffer(ctx context.Context, actor entities.Actor, offerID string) (entities.Offer, error) {
	return u.decideOffer(ctx, actor, offerID, entities.OfferStatusZavrnjena)
}

func (u *OfferUseCase) decideOffer(ctx context.Context, actor entities.Actor, offerID string, target entities.OfferStatus) (entities.Offer, error) {
	offerID = strings.TrimSpace(offerID)
	if offerID == "" {
		return entities.Offer{}, ErrInvalidOfferID
	}

	offer, err := u.repo.GetByID(ctx, offerID)
	if err != nil {
		return entities.Offer{}, err
	}
	if offer.ID == "" {
		return entities.Offer{}, ErrOfferNotFound
	}
	if offer.Status == target {
		// Retried decision, nothing left to do.
		return offer, nil
	}

	inquiry, err := u.inquiryRepo.GetByID(ctx, offer.InquiryID)
	if err != nil {
		return entities.Offer{}, err
	}
	if inquiry.ID == "" {
		return entities.Offer{}, ErrInquiryNotFound
	}
	if inquiry.OwnerID != actor.ID && !actor.IsAdmin() {
		return entities.Offer{}, ErrForbidden
	}

	if err := statemachine.AssertTransition(statemachine.EntityOffer, offerID, string(offer.Status), string(target)); err != nil {
		u.audit.recordRejected(ctx, offerEntityType, offerID, string(offer.Status), string(target), actor, err)
		return entities.Offer{}, err
	}

	updated, err := u.repo.UpdateStatus(ctx, offerID, offer.Status, target)
	if err != nil {
		return entities.Offer{}, err
	}
	u.audit.record(ctx, offerEntityType, offerID, string(offer.Status), string(target), actor, nil)

	if target == entities.OfferStatusSprejeta {
		if err := u.advanceInquiry(ctx, actor, inquiry, entities.InquiryStatusAccepted); err != nil {
			return entities.Offer{}, err
		}
	} else if err := u.maybeReopenInquiry(ctx, actor, inquiry); err != nil {
		return entities.Offer{}, err
	}

	zap.S().Infof("[offer][usecase] decide success offer_id=%s status=%s actor=%s", offerID, target, actor.ID)
	return updated, nil
}

// advanceInquiry moves the inquiry to the wanted status, tolerating a
// concurrent writer that already got it there.
func (u *OfferUseCase) advanceInquiry(ctx context.Context, actor entities.Actor, inquiry entities.Inquiry, target entities.InquiryStatus) error {
	if inquiry.Status == target {
		return nil
	}
	if err := statemachine.AssertTransition(statemachine.EntityInquiry, inquiry.ID, string(inquiry.Status), string(target)); err != nil {
		u.audit.recordRejected(ctx, inquiryEntityType, inquiry.ID, string(inquiry.Status), string(target), actor, err)
		return err
	}
	if _, err := u.inquiryRepo.UpdateStatus(ctx, inquiry.ID, inquiry.Status, target); err != nil {
		if errors.Is(err, entities.ErrConcurrencyConflict) {
			current, gerr := u.inquiryRepo.GetByID(ctx, inquiry.ID)
			if gerr == nil && current.Status == target {
				return nil
			}
		}
		return err
	}
	u.audit.record(ctx, inquiryEntityType, inquiry.ID, string(inquiry.Status), string(target), actor, nil)
	return nil
}

// maybeReopenInquiry puts an inquiry back to pending when its last open
// offer was rejected.
func (u *OfferUseCase) maybeReopenInquiry(ctx context.Context, actor entities.Actor, inquiry entities.Inquiry) error {
	if inquiry.Status != entities.InquiryStatusOfferReceived {
		return nil
	}
	offers, err := u.repo.ListByInquiryID(ctx, inquiry.ID)
	if err != nil {
		return err
	}
	for _, o := range offers {
		if o.Status == entities.OfferStatusPoslana {
			return nil
		}
	}
	if _, err := u.inquiryRepo.UpdateStatus(ctx, inquiry.ID, entities.InquiryStatusOfferReceived, entities.InquiryStatusPending); err != nil {
		if errors.Is(err, entities.ErrConcurrencyConflict) {
			return nil
		}
		return err
	}
	u.audit.record(ctx, inquiryEntityType, inquiry.ID, string(entities.InquiryStatusOfferReceived), string(entities.InquiryStatusPending), actor, nil)
	return nil
}
