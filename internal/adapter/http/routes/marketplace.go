package routes

import (
	"mojster_trust/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathInquiries = "/inquiries"
	PathOffers    = "/offers"
	PathEscrow    = "/escrow"
	PathBookings  = "/bookings"
)

func addMarketplaceRoutes(rg *gin.RouterGroup, rateLimited gin.HandlerFunc, inquiryHandler *handlers.InquiryHandler, offerHandler *handlers.OfferHandler, escrowHandler *handlers.EscrowHandler, bookingHandler *handlers.BookingHandler) {
	inquiries := rg.Group(PathInquiries)
	{
		inquiries.POST("", inquiryHandler.Create)
		inquiries.GET("/:id", inquiryHandler.GetByID)
		inquiries.POST("/:id/close", inquiryHandler.Close)
		inquiries.POST("/:id/complete", inquiryHandler.Complete)
	}

	offers := rg.Group(PathOffers)
	{
		offers.POST("", rateLimited, offerHandler.Create)
		offers.POST("/:id/accept", offerHandler.Accept)
		offers.POST("/:id/reject", offerHandler.Reject)
	}

	escrow := rg.Group(PathEscrow)
	{
		escrow.POST("/authorize", escrowHandler.Authorize)
		escrow.POST("/:id/release", escrowHandler.Release)
		escrow.POST("/:id/refund", escrowHandler.Refund)
		escrow.POST("/:id/dispute", escrowHandler.Dispute)
		escrow.POST("/:id/resolve", escrowHandler.ResolveDispute)
		escrow.GET("/:id/audit", escrowHandler.ListAudit)
	}

	bookings := rg.Group(PathBookings)
	{
		bookings.POST("", rateLimited, bookingHandler.Create)
	}
}
