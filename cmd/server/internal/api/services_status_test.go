package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/health"
)

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	return w
}

func checker(name string, healthy bool) *health.HealthChecker {
	target := health.FromErrorCheck(name, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("unreachable")
	})
	hc := health.NewHealthChecker(target, time.Minute, 1, nil)
	hc.CheckNow(context.Background())
	return hc
}

func TestHandleReadiness(t *testing.T) {
	w := serve(t, HandleReadiness(health.Set{checker("whisper", true), checker("llm", true)}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, HandleReadiness(health.Set{checker("whisper", true), checker("llm", false)}))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ServicesStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	require.Len(t, resp.Services, 2)
	assert.Equal(t, "llm", resp.Services[1].Name)
	assert.Contains(t, resp.Services[1].ErrorMessage, "unreachable")
}

func TestHandleServicesStatus_AlwaysOK(t *testing.T) {
	w := serve(t, HandleServicesStatus(health.Set{checker("ffmpeg", false)}))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp ServicesStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
}

func TestHandleHealth(t *testing.T) {
	w := serve(t, HandleHealth("1.2.3", "dev", time.Now().Add(-time.Minute)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "audioscribe", resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
}
