package http

import (
	"encoding/json"
	"net/http"
	apperrors "rentacar/pkg/errors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// PageResponse is the envelope of every paginated listing. The names of the
// total and items keys differ per resource (totalUsers/users, totalCars/cars...).
type PageResponse struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int64
	TotalKey   string
	ItemsKey   string
	Items      any
}

func (p PageResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"page":       p.Page,
		"limit":      p.Limit,
		p.TotalKey:   p.Total,
		"totalPages": p.TotalPages,
		p.ItemsKey:   p.Items,
	})
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err with the status carried by its AppError. Errors that
// are not AppErrors are reported as a generic 500.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	return WriteJSON(w, appErr.StatusCode(), ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}

// WriteMessage writes {"message": msg} plus an optional payload under key.
func WriteMessage(w http.ResponseWriter, statusCode int, msg, key string, payload any) error {
	body := map[string]any{"message": msg}
	if key != "" {
		body[key] = payload
	}
	return WriteJSON(w, statusCode, body)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, data)
}

func WriteCreated(w http.ResponseWriter, msg, key string, payload any) error {
	return WriteMessage(w, http.StatusCreated, msg, key, payload)
}

func WritePage(w http.ResponseWriter, page PageResponse) error {
	return WriteJSON(w, http.StatusOK, page)
}
