package handlers

import (
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

var (
	errInvalidEscrowPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request payload", http.StatusBadRequest)
	errMissingActor         = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or invalid bearer token", http.StatusUnauthorized)
)

// EscrowHandler handles HTTP requests for escrow-held payments.

type EscrowHandler struct {
	usecase usecase.IEscrowUseCase
}

func NewEscrowHandler(uc usecase.IEscrowUseCase) *EscrowHandler {
	return &EscrowHandler{usecase: uc}
}

// Authorize creates the escrow hold for an accepted offer.
func (h *EscrowHandler) Authorize(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.AuthorizeEscrowRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidEscrowPayload.HTTPStatus, errInvalidEscrowPayload.ToHTTPError())
		return
	}
	zap.S().Infof("[escrow][handler] authorize start offer_id=%s actor=%s", payload.ResolveOfferID(), actor.ID)

	tx, err := h.usecase.Authorize(c.Request.Context(), actor, payload.ResolveOfferID(), payload.GrossAmount)
	if err != nil {
		zap.S().Warnf("[escrow][handler] authorize failed offer_id=%s err=%v", payload.ResolveOfferID(), err)
		appErr := mapEscrowError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.OK(response.FromEscrowTransaction(tx)))
}

// Release captures the hold and pays the craftworker out.
func (h *EscrowHandler) Release(c *gin.Context) {
	h.transition(c, "release", func(actor entities.Actor, id string) (entities.EscrowTransaction, error) {
		return h.usecase.Release(c.Request.Context(), actor, id)
	})
}

// Refund returns held funds to the customer; admin only.
func (h *EscrowHandler) Refund(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.RefundEscrowRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidEscrowPayload.HTTPStatus, errInvalidEscrowPayload.ToHTTPError())
		return
	}

	id := c.Param("id")
	tx, err := h.usecase.Refund(c.Request.Context(), actor, id, payload.Reason, payload.Amount)
	if err != nil {
		zap.S().Warnf("[escrow][handler] refund failed transaction_id=%s err=%v", id, err)
		appErr := mapEscrowError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromEscrowTransaction(tx)))
}

// Dispute freezes the transaction for admin review.
func (h *EscrowHandler) Dispute(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.DisputeEscrowRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidEscrowPayload.HTTPStatus, errInvalidEscrowPayload.ToHTTPError())
		return
	}

	id := c.Param("id")
	tx, err := h.usecase.Dispute(c.Request.Context(), actor, id, payload.Reason)
	if err != nil {
		zap.S().Warnf("[escrow][handler] dispute failed transaction_id=%s err=%v", id, err)
		appErr := mapEscrowError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromEscrowTransaction(tx)))
}

// ResolveDispute applies the admin verdict on a disputed transaction.
func (h *EscrowHandler) ResolveDispute(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidEscrowPayload.HTTPStatus, errInvalidEscrowPayload.ToHTTPError())
		return
	}

	id := c.Param("id")
	tx, err := h.usecase.ResolveDispute(c.Request.Context(), actor, id, payload.ResolveOutcome())
	if err != nil {
		zap.S().Warnf("[escrow][handler] resolve failed transaction_id=%s outcome=%s err=%v", id, payload.ResolveOutcome(), err)
		appErr := mapEscrowError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromEscrowTransaction(tx)))
}

// ListAudit returns the transaction's audit trail in ascending sequence order.
func (h *EscrowHandler) ListAudit(c *gin.Context) {
	id := c.Param("id")
	entries, err := h.usecase.ListAudit(c.Request.Context(), id)
	if err != nil {
		appErr := mapEscrowError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromAuditEntries(entries)))
}

func (h *EscrowHandler) transition(c *gin.Context, op string, f func(actor entities.Actor, id string) (entities.EscrowTransaction, error)) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	id := c.Param("id")
	tx, err := f(actor, id)
	if err != nil {
		zap.S().Warnf("[escrow][handler] %s failed transaction_id=%s err=%v", op, id, err)
		appErr := mapEscrowError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.OK(response.FromEscrowTransaction(tx)))
}

func mapEscrowError(err error) *pkg.AppError {
	var invalidTransition *statemachine.InvalidTransitionError
	var terminal *statemachine.TerminalStateError

	switch {
	case errors.Is(err, usecase.ErrInvalidTransactionID),
		errors.Is(err, usecase.ErrInvalidOfferID),
		errors.Is(err, usecase.ErrInvalidGrossAmount),
		errors.Is(err, usecase.ErrInvalidRefundAmount),
		errors.Is(err, usecase.ErrDisputeReasonRequired),
		errors.Is(err, usecase.ErrInvalidResolveOutcome),
		errors.Is(err, commission.ErrUnknownTier),
		errors.Is(err, commission.ErrInvalidAmount):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrForbidden):
		return pkg.NewDomainErrorSimple("FORBIDDEN", "Actor not allowed to perform this operation", http.StatusForbidden)
	case errors.Is(err, usecase.ErrTransactionNotFound):
		return pkg.NewDomainErrorSimple("TRANSACTION_NOT_FOUND", "Escrow transaction not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrOfferNotFound):
		return pkg.NewDomainErrorSimple("OFFER_NOT_FOUND", "Offer not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrOfferNotAccepted):
		return pkg.NewDomainErrorSimple("OFFER_NOT_ACCEPTED", "Offer is not accepted", http.StatusConflict)
	case errors.As(err, &terminal):
		return pkg.NewDomainErrorSimple("TERMINAL_STATE", terminal.Error(), http.StatusConflict)
	case errors.As(err, &invalidTransition):
		return pkg.NewDomainErrorSimple("INVALID_TRANSITION", invalidTransition.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrConcurrencyConflict):
		return pkg.NewDomainErrorSimple("CONCURRENCY_CONFLICT", "Concurrent update detected, retry the request", http.StatusConflict)
	case errors.Is(err, usecase.ErrGatewayTimeout):
		return pkg.NewDomainErrorSimple("GATEWAY_TIMEOUT", "Payment gateway timed out, transaction state pending reconciliation", http.StatusGatewayTimeout)
	case errors.Is(err, usecase.ErrGatewayFailed):
		return pkg.NewDomainErrorSimple("GATEWAY_ERROR", "Payment gateway failure", http.StatusBadGateway)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
