package controllers

import (
	"log/slog"
	"net/http"

	"eventreserve/internal/delivery/http/helpers"
	"eventreserve/internal/delivery/http/middleware"
	"eventreserve/internal/domain"
)

type ReservationController struct {
	Logger  *slog.Logger
	Service domain.ReservationService
}

func NewReservationController(logger *slog.Logger, svc domain.ReservationService) *ReservationController {
	return &ReservationController{
		Logger:  logger,
		Service: svc,
	}
}

// JoinResponse is the success payload for POST /events/{eventID}/reservations.
// swagger:model JoinResponse
type JoinResponse struct {
	Reservation    *domain.Reservation `json:"reservation"`
	AvailableSpots int                 `json:"available_spots"`
}

// Join godoc
// @Summary Reserve a slot on an event
// @Description Atomically reserves one of the event's remaining slots for the authenticated user. Fails with 409 when the event is full or the user already holds a confirmed reservation.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.JoinResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/reservations [post]
func (c *ReservationController) Join(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	res, spots, err := c.Service.Join(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, JoinResponse{Reservation: res, AvailableSpots: spots})
}

// LeaveResponse is the success payload for DELETE /events/{eventID}/reservations.
// swagger:model LeaveResponse
type LeaveResponse struct {
	AvailableSpots int `json:"available_spots"`
}

// Leave godoc
// @Summary Cancel the authenticated user's reservation
// @Description Cancels the user's confirmed reservation and frees its slot. The reservation record is kept with status cancelled.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.LeaveResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable (retriable)"
// @Router /events/{eventID}/reservations [delete]
func (c *ReservationController) Leave(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	spots, err := c.Service.Leave(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, LeaveResponse{AvailableSpots: spots})
}

// StatusResponse is the success payload for GET /events/{eventID}/reservations/me.
// swagger:model StatusResponse
type StatusResponse struct {
	Reserved bool `json:"reserved"`
}

// Status godoc
// @Summary Check whether the authenticated user holds a reservation
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/{eventID}/reservations/me [get]
func (c *ReservationController) Status(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	reserved, err := c.Service.Status(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Reserved: reserved})
}

// ListAttendees godoc
// @Summary List an event's confirmed reservations
// @Description Returns confirmed reservations ordered by reservation time ascending.
// @Tags reservations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {array} domain.Reservation
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees [get]
func (c *ReservationController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}

	reservations, err := c.Service.ListAttendees(r.Context(), eventID)
	if err != nil {
		writeDomainError(r.Context(), c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reservations)
}
