package handler

import (
	"net/http"
	"rentacar/internal/auth"
	"rentacar/internal/cars/service"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	httputil "rentacar/pkg/http"
	"rentacar/pkg/logger"
	"rentacar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	imageField         = "image"
	multipartMaxMemory = 1 << 20
)

type CarHandler struct {
	service service.CarService
	log     *logger.Logger
}

func NewCarHandler(service service.CarService, log *logger.Logger) *CarHandler {
	return &CarHandler{
		service: service,
		log:     log,
	}
}

func (h *CarHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit := httputil.ExtractPage(r)
	status := r.URL.Query().Get("status")

	cars, total, err := h.service.List(r.Context(), status, page, limit)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	totalPages := config.TotalPages(total, limit)
	if err := httputil.CheckPage(page, totalPages); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePage(w, httputil.PageResponse{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		TotalKey:   "totalCars",
		ItemsKey:   "cars",
		Items:      cars,
	}); err != nil {
		h.log.Error("failed to write page response", "handler", "GetAll", "operation", "WritePage", "error", err)
	}
}

func (h *CarHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	car, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, car); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var car model.Car
	if err := httputil.DecodeJSON(r, &car); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &car); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, "Car created successfully", "car", car); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.CarUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	car, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Car updated successfully", "car", car); err != nil {
		h.log.Error("failed to write message response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Car deleted successfully", "", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

func (h *CarHandler) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		h.writeError(w, "UploadImage", apperrors.InvalidInput("Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		h.writeError(w, "UploadImage", apperrors.InvalidInput("image file is required"))
		return
	}
	defer file.Close()

	car, err := h.service.UploadImage(r.Context(), ps.ByName("id"), file, header.Size)
	if err != nil {
		h.writeError(w, "UploadImage", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Car image uploaded successfully", "car", car); err != nil {
		h.log.Error("failed to write message response", "handler", "UploadImage", "operation", "WriteMessage", "error", err)
	}
}

func (h *CarHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CarHandler) RegisterRoutes(router *httprouter.Router, guard *auth.Guard) {
	admin := []auth.Decorator{guard.CSRF, guard.RequireSession, guard.RequireAdmin}

	router.GET("/cars", h.GetAll)
	router.GET("/cars/:id", h.GetByID)
	router.POST("/cars", auth.Chain(h.Create, admin...))
	router.PUT("/cars/:id", auth.Chain(h.Update, admin...))
	router.DELETE("/cars/:id", auth.Chain(h.Delete, admin...))
	router.POST("/cars/:id/image", auth.Chain(h.UploadImage, admin...))
}
