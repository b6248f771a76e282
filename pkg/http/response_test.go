package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"app error", apperrors.Forbidden("Forbidden"), http.StatusForbidden, "Forbidden"},
		{"conflict", apperrors.Conflict("Car is already booked for these dates"), http.StatusConflict, "Car is already booked for these dates"},
		{"plain error hidden", errors.New("mongo: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, WriteError(rec, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestWriteMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteMessage(rec, http.StatusOK, "Login successful", "user", map[string]string{"id": "1"}))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, map[string]any{"id": "1"}, body["user"])

	rec = httptest.NewRecorder()
	require.NoError(t, WriteMessage(rec, http.StatusOK, "Logged out successfully", "", nil))
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
}

func TestWritePage(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WritePage(rec, PageResponse{
		Page:       2,
		Limit:      10,
		Total:      11,
		TotalPages: 2,
		TotalKey:   "totalCars",
		ItemsKey:   "cars",
		Items:      []string{"a"},
	}))

	assert.JSONEq(t, `{"page":2,"limit":10,"totalCars":11,"totalPages":2,"cars":["a"]}`, rec.Body.String())
}

func TestExtractPage(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 10},
		{"page=3&limit=20", 3, 20},
		{"page=0&limit=0", 1, 10},
		{"page=-2&limit=-5", 1, 10},
		{"page=abc&limit=xyz", 1, 10},
		{"limit=1000", 1, 100},
		{"page=9223372036854775807&limit=100", config.MaxPage, 100},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/users?"+tt.query, nil)
			page, limit := ExtractPage(r)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestCheckPage(t *testing.T) {
	assert.NoError(t, CheckPage(1, 0))
	assert.NoError(t, CheckPage(5, 0))
	assert.NoError(t, CheckPage(2, 2))

	err := CheckPage(3, 2)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.AsAppError(err).StatusCode())
	assert.Equal(t, "Page not found", apperrors.AsAppError(err).Message)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	r := httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{"email":"a@b.co"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "a@b.co", dst.Email)

	r = httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{"email":`))
	err := DecodeJSON(r, &dst)
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())

	r = httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(""))
	err = DecodeJSON(r, &dst)
	assert.Equal(t, "Request body is empty", apperrors.AsAppError(err).Message)
}
