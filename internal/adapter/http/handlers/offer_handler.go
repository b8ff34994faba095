package handlers

import (
	"context"
	"errors"
	"net/http"

	request "mojster_trust/internal/adapter/http/dto/request"
	response "mojster_trust/internal/adapter/http/dto/response"
	"mojster_trust/internal/adapter/http/middleware"
	"mojster_trust/internal/domain/commission"
	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	"mojster_trust/internal/usecase"
	"mojster_trust/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OfferHandler handles HTTP requests for craftworker offers.

type OfferHandler struct {
	usecase usecase.IOfferUseCase
}

func NewOfferHandler(uc usecase.IOfferUseCase) *OfferHandler {
	return &OfferHandler{usecase: uc}
}

func (h *OfferHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.CreateOfferRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request payload", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	offer, err := h.usecase.CreateOffer(c.Request.Context(), actor, payload.ResolveInquiryID(), payload.PriceEstimate)
	if err != nil {
		zap.S().Warnf("[offer][handler] create failed inquiry_id=%s actor=%s err=%v", payload.ResolveInquiryID(), actor.ID, err)
		appErr := mapOfferError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.OK(response.FromOffer(offer)))
}

func (h *OfferHandler) Accept(c *gin.Context) {
	h.decide(c, h.usecase.AcceptOffer)
}

func (h *OfferHandler) Reject(c *gin.Context) {
	h.decide(c, h.usecase.RejectOffer)
}

func (h *OfferHandler) decide(c *gin.Context, f func(ctx context.Context, actor entities.Actor, offerID string) (entities.Offer, error)) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	id := c.Param("id")
	offer, err := f(c.Request.Context(), actor, id)
	if err != nil {
		zap.S().Warnf("[offer][handler] decide failed offer_id=%s actor=%s err=%v", id, actor.ID, err)
		appErr := mapOfferError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromOffer(offer)))
}

func mapOfferError(err error) *pkg.AppError {
	var invalidTransition *statemachine.InvalidTransitionError
	var terminal *statemachine.TerminalStateError

	switch {
	case errors.Is(err, usecase.ErrInvalidOfferID),
		errors.Is(err, usecase.ErrInvalidInquiryID),
		errors.Is(err, usecase.ErrInvalidOfferPrice),
		errors.Is(err, commission.ErrUnknownTier):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrForbidden):
		return pkg.NewDomainErrorSimple("FORBIDDEN", "Actor not allowed to perform this operation", http.StatusForbidden)
	case errors.Is(err, usecase.ErrOfferNotFound):
		return pkg.NewDomainErrorSimple("OFFER_NOT_FOUND", "Offer not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInquiryNotFound):
		return pkg.NewDomainErrorSimple("INQUIRY_NOT_FOUND", "Inquiry not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInquiryNotOpen):
		return pkg.NewDomainErrorSimple("INQUIRY_NOT_OPEN", "Inquiry does not accept offers", http.StatusConflict)
	case errors.As(err, &terminal):
		return pkg.NewDomainErrorSimple("TERMINAL_STATE", terminal.Error(), http.StatusConflict)
	case errors.As(err, &invalidTransition):
		return pkg.NewDomainErrorSimple("INVALID_TRANSITION", invalidTransition.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrConcurrencyConflict):
		return pkg.NewDomainErrorSimple("CONCURRENCY_CONFLICT", "Concurrent update detected, retry the request", http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
