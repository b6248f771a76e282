package handler

import (
	"net/http"
	"rentacar/internal/auth"
	"rentacar/internal/users/service"
	"rentacar/pkg/config"
	httputil "rentacar/pkg/http"
	"rentacar/pkg/logger"
	"rentacar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewAdminHandler(service service.UserService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit := httputil.ExtractPage(r)

	users, total, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, "ListUsers", err)
		return
	}

	totalPages := config.TotalPages(total, limit)
	if err := httputil.CheckPage(page, totalPages); err != nil {
		h.writeError(w, "ListUsers", err)
		return
	}

	views := make([]model.AdminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.AdminView())
	}

	if err := httputil.WritePage(w, httputil.PageResponse{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		TotalKey:   "totalUsers",
		ItemsKey:   "users",
		Items:      views,
	}); err != nil {
		h.log.Error("failed to write page response", "handler", "ListUsers", "operation", "WritePage", "error", err)
	}
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.AdminUserCreate
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "CreateUser", err)
		return
	}

	user, err := h.service.AdminCreate(r.Context(), &input)
	if err != nil {
		h.writeError(w, "CreateUser", err)
		return
	}

	if err := httputil.WriteCreated(w, "User created successfully", "user", user.AdminView()); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateUser", "operation", "WriteCreated", "error", err)
	}
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	var input model.RoleChange
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "ChangeRole", err)
		return
	}

	if _, err := h.service.ChangeRole(r.Context(), actorID, &input); err != nil {
		h.writeError(w, "ChangeRole", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "User role updated successfully", "", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "ChangeRole", "operation", "WriteMessage", "error", err)
	}
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	var input model.UserDelete
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "DeleteUser", err)
		return
	}

	if err := h.service.AdminDelete(r.Context(), actorID, ps.ByName("id"), &input); err != nil {
		h.writeError(w, "DeleteUser", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "User deleted successfully", "", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "DeleteUser", "operation", "WriteMessage", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
