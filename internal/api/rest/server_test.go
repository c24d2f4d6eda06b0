package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/config"
)

func testServerConfig() *config.Config {
	return &config.Config{
		Version:     "test",
		Environment: "development",
		LogLevel:    "info",
		Server: config.ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
			RateLimit: config.RateLimitConfig{
				RequestsPerSecond: 100,
				BurstSize:         200,
			},
		},
	}
}

func TestServerRoutes(t *testing.T) {
	proc := new(MockProcessor)
	proc.On("Process", mock.Anything, mock.Anything).Return(testReceipt(), nil)

	srv := NewServer(testServerConfig(), proc, NewHealthService(DefaultHealthConfig()))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("process record", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/records", "application/json",
			strings.NewReader(`{"PatientID":"PATIENT-001"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, testReceipt().ProcessingID, resp.Header.Get(HeaderProcessingID))
		assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	})

	t.Run("wrong method is rejected", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/records")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/health+json", resp.Header.Get("Content-Type"))
	})

	t.Run("readiness", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ready")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics scrape", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "hdr_api_http_requests_total")
	})
}
