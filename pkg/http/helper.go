package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"strconv"
)

// DecodeJSON decodes the request body into dst. An empty or malformed body is
// reported as a 400.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperrors.InvalidInput("Invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeBadRequest, "Request body too large", http.StatusRequestEntityTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body is empty")
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}

// ExtractPage reads page and limit from the query string. Missing or
// unparsable values fall back to the defaults and limit is capped.
func ExtractPage(r *http.Request) (int, int) {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil {
		page = config.DefaultPage
	}

	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil {
		limit = config.DefaultPaginationLimit
	}

	return config.NormalizePage(page), config.NormalizePaginationLimit(limit)
}

// CheckPage rejects a page past the last one. An empty collection has no
// pages and any page is accepted.
func CheckPage(page int, totalPages int64) error {
	if totalPages > 0 && int64(page) > totalPages {
		return apperrors.NotFound("Page")
	}
	return nil
}
