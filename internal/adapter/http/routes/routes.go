package routes

import (
	"os"
	"strconv"

	_ "mojster_trust/docs" // swag generated
	"mojster_trust/internal/adapter/http/handlers"
	"mojster_trust/internal/adapter/http/middleware"
	"mojster_trust/internal/adapter/persistence/repository"
	"mojster_trust/internal/infrastructure/database"
	"mojster_trust/internal/infrastructure/logger"
	"mojster_trust/internal/infrastructure/notify"
	"mojster_trust/internal/infrastructure/payments"
	"mojster_trust/internal/ratelimit"
	"mojster_trust/internal/usecase"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var router = gin.New()

const PORT = 8080

// Run will start the server
func Run() {
	log := logger.Init()
	defer log.Sync()

	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes()

	err := router.Run(":" + strconv.Itoa(PORT))
	if err != nil {
		zap.S().Fatalf("[http][server] failed to start err=%v", err)
	}
}

func getRoutes() {
	ddb := database.ConnectDynamoDB()

	inquiryRepo := repository.NewInquiryDynamoRepository(ddb)
	offerRepo := repository.NewOfferDynamoRepository(ddb)
	escrowRepo := repository.NewEscrowDynamoRepository(ddb)
	auditRepo := repository.NewAuditLogDynamoRepository(ddb)
	slotRepo := repository.NewBookingSlotDynamoRepository(ddb)

	var paymentGateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(os.Getenv("MERCADOPAGO_ACCESS_TOKEN"))
	if err != nil {
		zap.S().Warnf("[http][server] Mercado Pago gateway not configured err=%v", err)
	} else {
		paymentGateway = mpGateway
	}
	notifier := notify.NewWebhookSinkFromEnv()

	inquiryUseCase := usecase.NewInquiryUseCase(inquiryRepo, auditRepo)
	offerUseCase := usecase.NewOfferUseCase(offerRepo, inquiryRepo, auditRepo)
	escrowUseCase := usecase.NewEscrowUseCase(escrowRepo, offerRepo, auditRepo, paymentGateway, notifier)
	bookingUseCase := usecase.NewBookingUseCase(slotRepo, inquiryRepo, auditRepo)

	inquiryHandler := handlers.NewInquiryHandler(inquiryUseCase)
	offerHandler := handlers.NewOfferHandler(offerUseCase)
	escrowHandler := handlers.NewEscrowHandler(escrowUseCase)
	bookingHandler := handlers.NewBookingHandler(bookingUseCase)

	v1 := router.Group("/v1")
	addPingRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.Auth())
	// Only the spam-prone write endpoints (offer creation, bookings) are
	// rate limited; reads and state transitions are not.
	rateLimited := middleware.RateLimit(ratelimit.New())
	addMarketplaceRoutes(protected, rateLimited, inquiryHandler, offerHandler, escrowHandler, bookingHandler)
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		zap.S().Errorf("[http][server] recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
