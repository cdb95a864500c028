package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("missing")))
	assert.True(t, IsForbidden(Forbidden("nope")))
	assert.True(t, IsRateLimited(RateLimited("slow down")))
	assert.True(t, IsBadRequest(BadRequest("bad")))

	assert.False(t, IsNotFound(Forbidden("nope")))
	assert.False(t, IsNotFound(nil))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading channel: %w", NotFound("channel not found"))
	assert.True(t, IsNotFound(err))
}

func TestWriteHTTPAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, Forbidden("can only edit own messages"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "can only edit own messages", body["error"])
}

func TestWriteHTTPMasksUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, fmt.Errorf("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"], "internal detail must not leak")
}

func TestFromResponseRestoresTaxonomy(t *testing.T) {
	body := []byte(`{"error":"channel not found"}`)

	err := FromResponse(http.StatusNotFound, body)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "channel not found", err.Message)

	err = FromResponse(http.StatusTooManyRequests, nil)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), err.Message)
}

func TestWriteThenFromResponseRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, BadRequest("content is required"))

	err := FromResponse(rec.Code, rec.Body.Bytes())
	assert.True(t, IsBadRequest(err))
	assert.Equal(t, "content is required", err.Message)
}
