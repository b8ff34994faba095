package handlers

import (
	"context"
	"errors"
	"net/http"

	request "mojster_trust/internal/adapter/http/dto/request"
	response "mojster_trust/internal/adapter/http/dto/response"
	"mojster_trust/internal/adapter/http/middleware"
	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/domain/statemachine"
	"mojster_trust/internal/usecase"
	"mojster_trust/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InquiryHandler handles HTTP requests for customer inquiries.

type InquiryHandler struct {
	usecase usecase.IInquiryUseCase
}

func NewInquiryHandler(uc usecase.IInquiryUseCase) *InquiryHandler {
	return &InquiryHandler{usecase: uc}
}

func (h *InquiryHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.CreateInquiryRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request payload", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	inquiry, err := h.usecase.Create(c.Request.Context(), actor, payload.ResolveCategory(), payload.Location)
	if err != nil {
		zap.S().Warnf("[inquiry][handler] create failed actor=%s err=%v", actor.ID, err)
		appErr := mapInquiryError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.OK(response.FromInquiry(inquiry)))
}

func (h *InquiryHandler) GetByID(c *gin.Context) {
	inquiry, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapInquiryError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromInquiry(inquiry)))
}

func (h *InquiryHandler) Close(c *gin.Context) {
	h.transition(c, h.usecase.Close)
}

func (h *InquiryHandler) Complete(c *gin.Context) {
	h.transition(c, h.usecase.Complete)
}

func (h *InquiryHandler) transition(c *gin.Context, f func(ctx context.Context, actor entities.Actor, id string) (entities.Inquiry, error)) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	id := c.Param("id")
	inquiry, err := f(c.Request.Context(), actor, id)
	if err != nil {
		zap.S().Warnf("[inquiry][handler] transition failed inquiry_id=%s err=%v", id, err)
		appErr := mapInquiryError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromInquiry(inquiry)))
}

func mapInquiryError(err error) *pkg.AppError {
	var invalidTransition *statemachine.InvalidTransitionError
	var terminal *statemachine.TerminalStateError

	switch {
	case errors.Is(err, usecase.ErrInvalidInquiryID), errors.Is(err, usecase.ErrInvalidCategory):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrNotInquiryOwner):
		return pkg.NewDomainErrorSimple("FORBIDDEN", "Only the inquiry owner may do this", http.StatusForbidden)
	case errors.Is(err, usecase.ErrInquiryNotFound):
		return pkg.NewDomainErrorSimple("INQUIRY_NOT_FOUND", "Inquiry not found", http.StatusNotFound)
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
