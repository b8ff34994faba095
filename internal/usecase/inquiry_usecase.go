package usecase

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInquiryNotFound  = errors.New("inquiry not found")
	ErrInvalidInquiryID = errors.New("invalid inquiry id")
	ErrInvalidCategory  = errors.New("inquiry category required")
	ErrNotInquiryOwner  = errors.New("actor is not the inquiry owner")
)

// IInquiryUseCase covers the customer-side inquiry lifecycle. Inquiries are
// never physically deleted; closing and completing are status transitions.

type IInquiryUseCase interface {
	Create(ctx context.Context, actor entities.Actor, category, location string) (entities.Inquiry, error)
	GetByID(ctx context.Context, id string) (entities.Inquiry, error)
	Close(ctx context.Context, actor entities.Actor, id string) (entities.Inquiry, error)
	Complete(ctx context.Context, actor entities.Actor, id string) (entities.Inquiry, error)
}

type InquiryUseCase struct {
	repo  interfaces.IInquiryRepository
	audit auditWriter
}

var _ IInquiryUseCase = (*InquiryUseCase)(nil)

func NewInquiryUseCase(repo interfaces.IInquiryRepository, auditRepo interfaces.IAuditLogRepository) *InquiryUseCase {
	return &InquiryUseCase{repo: repo, audit: auditWriter{repo: auditRepo}}
}

func (u *InquiryUseCase) Create(ctx context.Context, actor entities.Actor, category, location string) (entities.Inquiry, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return entities.Inquiry{}, ErrInvalidCategory
	}

	now := time.Now().UTC()
	inquiry := entities.Inquiry{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		Category:  category,
		Location:  strings.TrimSpace(location),
		Status:    entities.InquiryStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := u.repo.Create(ctx, inquiry)
	if err != nil {
		return entities.Inquiry{}, err
	}
	u.audit.record(ctx, inquiryEntityType, created.ID, "", string(entities.InquiryStatusPending), actor, map[string]string{
		"category": category,
	})
	zap.S().Infof("[inquiry][usecase] create success inquiry_id=%s owner=%s category=%s", created.ID, actor.ID, category)
	return created, nil
}

func (u *InquiryUseCase) GetByID(ctx context.Context, id string) (entities.Inquiry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Inquiry{}, ErrInvalidInquiryID
	}
	inquiry, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Inquiry{}, err
	}
	if inquiry.ID == "" {
		return entities.Inquiry{}, ErrInquiryNotFound
	}
	return inquiry, nil
}

func (u *InquiryUseCase) Close(ctx context.Context, actor entities.Actor, id string) (entities.Inquiry, error) {
	return u.transition(ctx, actor, id, entities.InquiryStatusClosed)
}

func (u *InquiryUseCase) Complete(ctx context.Context, actor entities.Actor, id string) (entities.Inquiry, error) {
	return u.transition(ctx, actor, id, entities.InquiryStatusCompleted)
}

func (u *InquiryUseCase) transition(ctx context.Context, actor entities.Actor, id string, target entities.InquiryStatus) (entities.Inquiry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Inquiry{}, ErrInvalidInquiryID
	}

	inquiry, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Inquiry{}, err
	}
	if inquiry.ID == "" {
		return entities.Inquiry{}, ErrInquiryNotFound
	}
	if inquiry.OwnerID != actor.ID && !actor.IsAdmin() {
		return entities.Inquiry{}, ErrNotInquiryOwner
	}
	if inquiry.Status == target {
		return inquiry, nil
	}

	if err := statemachine.AssertTransition(statemachine.EntityInquiry, id, string(inquiry.Status), string(target)); err != nil {
		u.audit.recordRejected(ctx, inquiryEntityType, id, string(inquiry.Status), string(target), actor, err)
		return entities.Inquiry{}, err
	}

	updated, err := u.repo.UpdateStatus(ctx, id, inquiry.Status, target)
	if err != nil {
		return entities.Inquiry{}, err
	}
	u.audit.record(ctx, inquiryEntityType, id, string(inquiry.Status), string(target), actor, nil)
	zap.S().Infof("[inquiry][usecase] transition success inquiry_id=%s status=%s actor=%s", id, target, actor.ID)
	return updated, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
