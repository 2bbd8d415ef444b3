package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/server/validation"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const (
	maxBodySize = 16 << 20
	maxPageSize = 100
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps service errors to responses. ErrorRelationNotFound also
// matches ErrorNotFound, so it is checked first.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.RequestValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve.Fields())
	case errors.Is(err, common.ErrorValidation):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorRelationNotFound):
		writeDetail(w, http.StatusBadRequest, "Not in the list.")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeDetail(w, http.StatusBadRequest, "Already exists.")
	case errors.Is(err, common.ErrorSelfReference):
		writeDetail(w, http.StatusBadRequest, "You cannot subscribe to yourself.")
	case errors.Is(err, common.ErrorUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, common.ErrorForbidden):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, common.ErrorNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	default:
		s.log(r.Context()).Error(r.Context(), "request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// decodeJSON reads a JSON body into v and validates it.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", common.ErrorValidation, err)
	}
	return validation.ValidateStruct(v)
}

// pathID parses the {id} route parameter. A malformed id cannot name any
// row, so it is reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

// queryInt returns the named query parameter or def when it is missing or
// not a positive integer.
func queryInt(q url.Values, name string, def int) int {
	v, err := strconv.Atoi(q.Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

type pageParams struct {
	page  int
	limit int
}

func (p pageParams) offset() int { return (p.page - 1) * p.limit }

// pagination reads page and limit. Any page other than a positive integer is
// not found, like a page past the end.
func (s *HTTPServer) pagination(r *http.Request) (pageParams, error) {
	q := r.URL.Query()
	p := pageParams{page: 1, limit: min(queryInt(q, "limit", s.pageSize), maxPageSize)}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("%w: invalid page", common.ErrorNotFound)
		}
		p.page = n
	}
	return p, nil
}

type pageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// newPage builds the paginated envelope. next and previous keep every other
// query parameter of r.
func newPage[T any](r *http.Request, p pageParams, count int, results []T) (*pageResponse[T], error) {
	if p.page > 1 && p.offset() >= count {
		return nil, fmt.Errorf("%w: invalid page", common.ErrorNotFound)
	}

	out := &pageResponse[T]{Count: count, Results: results}
	if out.Results == nil {
		out.Results = []T{}
	}
	if p.page*p.limit < count {
		out.Next = pageURL(r, p.page+1)
	}
	if p.page > 1 {
		out.Previous = pageURL(r, p.page-1)
	}
	return out, nil
}

func pageURL(r *http.Request, page int) *string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()

	s := u.String()
	return &s
}
