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

type UserHandler struct {
	service  service.UserService
	sessions *auth.Manager
	cfg      *config.Config
	log      *logger.Logger
}

func NewUserHandler(service service.UserService, sessions *auth.Manager, cfg *config.Config) *UserHandler {
	return &UserHandler{
		service:  service,
		sessions: sessions,
		cfg:      cfg,
		log:      cfg.Log,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Authenticated", "user", user.View()); err != nil {
		h.log.Error("failed to write message response", "handler", "Me", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.Login
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Login", err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	ttl := h.cfg.SessionTTL
	if input.RememberMe {
		ttl = h.cfg.RememberMeTTL
	}
	if err := h.sessions.Start(w, user.ID, ttl); err != nil {
		h.log.Error("Failed to start session", "id", user.ID, "error", err)
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Login successful", "user", user.View()); err != nil {
		h.log.Error("failed to write message response", "handler", "Login", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.Signup
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Signup", err)
		return
	}

	user, err := h.service.Signup(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Signup", err)
		return
	}

	if err := h.sessions.Start(w, user.ID, h.cfg.SessionTTL); err != nil {
		h.log.Error("Failed to start session", "id", user.ID, "error", err)
		h.writeError(w, "Signup", err)
		return
	}

	if err := httputil.WriteCreated(w, "User created successfully", "user", user.View()); err != nil {
		h.log.Error("failed to write created response", "handler", "Signup", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.sessions.End(w)

	if err := httputil.WriteMessage(w, http.StatusOK, "Logged out successfully", "", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "Logout", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input model.UserUpdate
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	user, err := h.service.Update(r.Context(), userID, ps.ByName("id"), &input)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "User updated successfully", "user", user.View()); err != nil {
		h.log.Error("failed to write message response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), userID, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	h.sessions.End(w)
	if err := httputil.WriteMessage(w, http.StatusOK, "User deleted successfully", "", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) Settings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		h.writeError(w, "Settings", err)
		return
	}

	if err := httputil.WriteSuccess(w, user.View()); err != nil {
		h.log.Error("failed to write success response", "handler", "Settings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input model.PasswordChange
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, &input); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Password updated successfully", "", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "ChangePassword", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
