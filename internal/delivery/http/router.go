package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventreserve/internal/delivery/http/controllers"
	"eventreserve/internal/delivery/http/middleware"
	"eventreserve/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	reservationController *controllers.ReservationController,
	userController *controllers.UserController,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("POST /events/{eventID}/cancel", auth(eventController.CancelEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))

	// Reservations
	mux.HandleFunc("POST /events/{eventID}/reservations", auth(reservationController.Join))
	mux.HandleFunc("DELETE /events/{eventID}/reservations", auth(reservationController.Leave))
	mux.HandleFunc("GET /events/{eventID}/reservations/me", auth(reservationController.Status))
	mux.HandleFunc("GET /events/{eventID}/attendees", reservationController.ListAttendees)

	// Users
	mux.HandleFunc("GET /users/me", auth(userController.GetProfile))
	mux.HandleFunc("GET /users/me/events", auth(eventController.ListMyEvents))
	mux.HandleFunc("DELETE /users/me", auth(userController.DeleteAccount))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
