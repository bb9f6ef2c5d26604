package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode reports the body along with a status mismatch.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode == expected {
		return
	}
	body, _ := io.ReadAll(resp.Body)
	assert.Failf(t, "unexpected status code", "want %d, got %d: %s", expected, resp.StatusCode, strings.TrimSpace(string(body)))
}

// AssertJSONResponse checks the content type and decodes the body into v.
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	body := ReadBody(t, resp)
	require.NoError(t, json.Unmarshal([]byte(body), v), "bad JSON body: %s", body)
}

// AssertErrorResponse checks a plain-text error reply.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	body := ReadBody(t, resp)
	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code: %s", body)
	assert.Contains(t, body, expectedMessage)
}

func AssertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "expected redirect")
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	return string(body)
}
