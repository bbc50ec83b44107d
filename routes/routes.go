package routes

import (
	"carvia/handlers"
	"carvia/middleware"
	"carvia/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint of the booking core. Gateway redirect
// legs are public by necessity (the browser arrives without a bearer token);
// everything else sits behind JWT auth.
func RegisterRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler, paymentHandler *handlers.PaymentHandler, trackingHandler *handlers.TrackingHandler) {
	api := r.Group("/api")

	bookings := api.Group("/bookings")
	bookings.Use(middleware.JWTAuthMiddleware())
	{
		bookings.POST("", middleware.RequireRole(models.RoleCustomer), bookingHandler.CreateBooking)
		bookings.GET("/me", middleware.RequireRole(models.RoleCustomer), bookingHandler.GetMyBookings)
		bookings.GET("/owner", middleware.RequireRole(models.RoleOwner), bookingHandler.GetOwnerBookings)
		bookings.GET("/invoice/:id", bookingHandler.GetInvoice)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PATCH("/:id/status", bookingHandler.UpdateStatus)
	}

	payments := api.Group("/payments")
	{
		// Initiation requires the booking's customer.
		authed := payments.Group("")
		authed.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleCustomer))
		{
			authed.POST("/booking/:id/safepay/init", paymentHandler.InitSafepay)
			authed.POST("/booking/:id/easypay/init", paymentHandler.InitEasypay)
		}

		// Gateway redirect legs arrive straight from the browser.
		payments.GET("/easypay/callback", paymentHandler.EasypayCallback)
		payments.GET("/return", paymentHandler.PaymentReturn)

		session := payments.Group("/session")
		session.Use(middleware.JWTAuthMiddleware())
		{
			session.GET("/:id", paymentHandler.GetSession)
		}
	}

	// Telemetry channel; authenticates via token query parameter.
	r.GET("/ws/tracking", trackingHandler.HandleWS)
}
