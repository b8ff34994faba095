package handlers

import (
	"errors"
	"net/http"

	request "mojster_trust/internal/adapter/http/dto/request"
	response "mojster_trust/internal/adapter/http/dto/response"
	"mojster_trust/internal/adapter/http/middleware"
	"mojster_trust/internal/usecase"
	"mojster_trust/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler handles HTTP requests for slot bookings.

type BookingHandler struct {
	usecase usecase.IBookingUseCase
}

func NewBookingHandler(uc usecase.IBookingUseCase) *BookingHandler {
	return &BookingHandler{usecase: uc}
}

// Create tries to reserve the requested slot. A full slot is reported with
// 409 and accepted=false rather than an internal error.
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(errMissingActor.HTTPStatus, errMissingActor.ToHTTPError())
		return
	}

	var payload request.BookingRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request payload", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	result, err := h.usecase.TryBook(c.Request.Context(), actor, usecase.BookingInput{
		CraftworkerID: payload.CraftworkerID,
		Date:          payload.Date,
		Time:          payload.Time,
		InquiryID:     payload.InquiryID,
	})
	if err != nil {
		zap.S().Warnf("[booking][handler] create failed craftworker=%s date=%s time=%s err=%v", payload.CraftworkerID, payload.Date, payload.Time, err)
		appErr := mapBookingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	body := response.BookingResponse{
		CraftworkerID: payload.CraftworkerID,
		Date:          payload.Date,
		Time:          payload.Time,
		Accepted:      result.Accepted,
	}
	if !result.Accepted {
		c.JSON(http.StatusConflict, response.OK(body))
		return
	}
	c.JSON(http.StatusCreated, response.OK(body))
}

func mapBookingError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidSlot):
		return pkg.NewDomainErrorSimple("INVALID_SLOT", "Invalid booking slot", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInquiryNotFound):
		return pkg.NewDomainErrorSimple("INQUIRY_NOT_FOUND", "Inquiry not found", http.StatusNotFound)
	default:
		return mapInquiryError(err)
	}
}
