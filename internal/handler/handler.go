// Package handler exposes the service facades over the REST contract the
// client speaks. Payloads are returned bare inside the response envelope.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/validator"
)

// fail writes err with the HTTP status its kind maps to. Unclassified errors
// are recorded on the context and reported as INTERNAL_ERROR.
func fail(c *gin.Context, err error) {
	var e *apierr.Error
	if !errors.As(err, &e) {
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	code := e.Code
	if code == "" {
		code = defaultCode(e)
	}
	response.FailWithDetails(c, StatusOf(e), code, e.Message, e.Fields)
}

// StatusOf maps a classified error to the status the client classifies back
// into the same kind.
func StatusOf(e *apierr.Error) int {
	switch {
	case errors.Is(e, apierr.ErrInvalidCredentials), errors.Is(e, apierr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(e, apierr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(e, apierr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(e, apierr.ErrValidation):
		switch e.Code {
		case response.ErrConflict, response.ErrDependencyExists:
			return http.StatusConflict
		case response.ErrClassFull, response.ErrClassClosed, response.ErrNotEnrolled:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadRequest
		}
	default:
		return http.StatusInternalServerError
	}
}

func defaultCode(e *apierr.Error) response.ErrCode {
	switch {
	case errors.Is(e, apierr.ErrInvalidCredentials):
		return response.ErrInvalidCredentials
	case errors.Is(e, apierr.ErrUnauthorized):
		return response.ErrTokenInvalid
	case errors.Is(e, apierr.ErrForbidden):
		return response.ErrForbidden
	case errors.Is(e, apierr.ErrNotFound):
		return response.ErrNotFound
	case errors.Is(e, apierr.ErrValidation):
		return response.ErrValidation
	default:
		return response.ErrInternal
	}
}

// bind decodes and validates the JSON body into dst. On failure the
// response is already written.
func bind(c *gin.Context, dst any) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}

// readBody reads the request body and puts it back for a later bind.
func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return nil, false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, true
}

// recordsOf returns the records array of a batch body. Bodies that are not
// a JSON object with a records key report false.
func recordsOf(raw []byte) (json.RawMessage, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	records, ok := doc["records"]
	return records, ok
}

// paramID parses a positive int64 path parameter. On failure the response
// is already written.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// queryID parses a required positive int64 query parameter.
func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{name: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// reply writes v or the error.
func reply(c *gin.Context, status int, v any, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, status, v)
}

// ─── Generic CRUD ──────────────────────────────────────────────────────

// crud serves the five uniform operations of a resource.
type crud[T, In any] struct {
	svc service.Resource[T, In]
}

// List godoc
// GET /api/<resource>
func (h crud[T, In]) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	reply(c, http.StatusOK, items, err)
}

// Get godoc
// GET /api/<resource>/:id
func (h crud[T, In]) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), id)
	reply(c, http.StatusOK, item, err)
}

// Create godoc
// POST /api/<resource>
func (h crud[T, In]) Create(c *gin.Context) {
	var in In
	if !bind(c, &in) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), in)
	reply(c, http.StatusCreated, item, err)
}

// Update godoc
// PUT /api/<resource>/:id
func (h crud[T, In]) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in In
	if !bind(c, &in) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), id, in)
	reply(c, http.StatusOK, item, err)
}

// Delete godoc
// DELETE /api/<resource>/:id
func (h crud[T, In]) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}
