package restapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentTimeHandlerRequiresValidApiKey(t *testing.T) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/current-time.json?key=invalid")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, model.Code)
}

func TestCurrentTimeHandler_DeterministicTime(t *testing.T) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/current-time.json?key=TEST")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, "OK", model.Text)
	assert.Equal(t, 2, model.Version)
	assert.Equal(t, testNow.UnixMilli(), model.CurrentTime)

	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok)
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(testNow.UnixMilli()), entry["time"])
	assert.Equal(t, testNow.Format(time.RFC3339), entry["readableTime"])
}
