package handler

import (
	"net/http"
	"rentacar/internal/auth"
	"rentacar/internal/bookings/service"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	httputil "rentacar/pkg/http"
	"rentacar/pkg/logger"
	"rentacar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// GET /booking/mine is served by the /booking/:id route; httprouter does not
// allow a static segment next to a wildcard.
const mineSegment = "mine"

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.BookingInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, "Booking created successfully", "booking", booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == mineSegment {
		h.ListMine(w, r, ps)
		return
	}

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("No active session"))
		return
	}

	booking, err := h.service.GetByID(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit := httputil.ExtractPage(r)

	bookings, total, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	h.writePage(w, "GetAll", page, limit, total, bookings)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "ListMine", apperrors.Unauthorized("No active session"))
		return
	}
	page, limit := httputil.ExtractPage(r)

	bookings, total, err := h.service.ListMine(r.Context(), userID, page, limit)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}
	h.writePage(w, "ListMine", page, limit, total, bookings)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.BookingUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	booking, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Booking updated successfully", "booking", booking); err != nil {
		h.log.Error("failed to write message response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) writePage(w http.ResponseWriter, handler string, page, limit int, total int64, bookings []*model.BookingDetails) {
	totalPages := config.TotalPages(total, limit)
	if err := httputil.CheckPage(page, totalPages); err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WritePage(w, httputil.PageResponse{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		TotalKey:   "totalBookings",
		ItemsKey:   "bookings",
		Items:      bookings,
	}); err != nil {
		h.log.Error("failed to write page response", "handler", handler, "operation", "WritePage", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router, guard *auth.Guard) {
	router.GET("/booking", auth.Chain(h.GetAll, guard.RequireSession, guard.RequireAdmin))
	router.GET("/booking/:id", auth.Chain(h.GetByID, guard.RequireSession))
	router.POST("/booking", auth.Chain(h.Create, guard.CSRF, guard.RequireSession, guard.RequireAdmin))
	router.PUT("/booking/:id", auth.Chain(h.Update, guard.CSRF, guard.RequireSession, guard.RequireAdmin))
}
