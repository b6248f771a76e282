package middleware

import (
	"net/http"
	"net/http/httptest"
	"rentacar/pkg/logger"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeValidation(t *testing.T) {
	handler := ContentTypeValidation(logger.Discard(), "/image")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, "/cars", `{}`, "application/json", http.StatusNoContent},
		{"json with charset", http.MethodPut, "/cars/1", `{}`, "application/json; charset=utf-8", http.StatusNoContent},
		{"form post rejected", http.MethodPost, "/cars", `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing type rejected", http.MethodPost, "/cars", `{}`, "", http.StatusUnsupportedMediaType},
		{"multipart on upload path", http.MethodPost, "/cars/1/image", `--x--`, "multipart/form-data; boundary=x", http.StatusNoContent},
		{"multipart elsewhere rejected", http.MethodPost, "/cars", `--x--`, "multipart/form-data; boundary=x", http.StatusUnsupportedMediaType},
		{"empty body passes", http.MethodPost, "/user/logout", "", "", http.StatusNoContent},
		{"get ignored", http.MethodGet, "/cars", "", "text/plain", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	handler := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("012")))
	assert.Equal(t, http.StatusOK, rec.Code)
}
