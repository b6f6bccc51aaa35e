package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/monitoring"
	"github.com/legalconnect/legalconnect-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptanceRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return SetupRouter(&config.Config{
		GoEnv:              "test",
		JWTSecret:          "acceptance-secret",
		JWTIssuer:          "legalconnect-api",
		JWTAudience:        "legalconnect-clients",
		CORSAllowedOrigins: origins,
	})
}

// TestServerStartup verifies the full router can be built
func TestServerStartup(t *testing.T) {
	router := acceptanceRouter()
	assert.NotNil(t, router, "Router should be initialized")
	assert.NotEmpty(t, router.Routes())
}

// TestAPIHealthEndpointAcceptance makes a request as a real client would
func TestAPIHealthEndpointAcceptance(t *testing.T) {
	router := acceptanceRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "LegalConnect API is running", response.Message)
}

// TestHealthEndpointAvailability checks repeated requests answer consistently and quickly
func TestHealthEndpointAvailability(t *testing.T) {
	router := acceptanceRouter()

	for i := 0; i < 5; i++ {
		start := time.Now()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		assert.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("Request %d should succeed", i+1))
		assert.Less(t, time.Since(start), 100*time.Millisecond, "Health endpoint should respond in less than 100ms")
	}
}

func TestHealthEndpointMethodAndPrefix(t *testing.T) {
	router := acceptanceRouter()

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodPost, "/api/v1/health", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/health", http.StatusNotFound},
		{http.MethodGet, "/health", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := acceptanceRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/users/lawyers"},
		{http.MethodPost, "/api/v1/users/approve-lawyer/1"},
		{http.MethodPost, "/api/v1/consultations/create"},
		{http.MethodPatch, "/api/v1/consultations/update/1"},
		{http.MethodGet, "/api/v1/consultations/points"},
		{http.MethodGet, "/api/v1/consultations/notifications"},
		{http.MethodGet, "/api/v1/chat/messages/1"},
		{http.MethodPost, "/api/v1/chat/messages/1/send"},
		{http.MethodPatch, "/api/v1/chat/schedule/1"},
		{http.MethodGet, "/api/v1/chat/partner-name/1"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(r.method, r.path, nil))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router := acceptanceRouter("https://app.legalconnect.example")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/consultations/points", nil)
	req.Header.Set("Origin", "https://app.legalconnect.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.legalconnect.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestMetricsEndpoint(t *testing.T) {
	monitoring.Init()
	router := acceptanceRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/api/v1/health",status="200"}`), "request counter is exposed per route")
	assert.Contains(t, body, "consultation_points_debited_total")
}

// TestRegisterAndLoginOverHTTP drives a real listener the way a browser client would
func TestRegisterAndLoginOverHTTP(t *testing.T) {
	db := testutil.NewTestDB(t)
	original := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(original) })

	cfg := &config.Config{
		GoEnv:              "test",
		JWTSecret:          "acceptance-secret",
		JWTIssuer:          "legalconnect-api",
		JWTAudience:        "legalconnect-clients",
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: []string{"*"},
	}
	originalConfig := config.GetConfig()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(originalConfig) })

	gin.SetMode(gin.TestMode)
	server := httptest.NewServer(SetupRouter(cfg))
	defer server.Close()

	post := func(path, body, token string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, server.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := post("/api/v1/users/register", `{"email":"amara@example.com","password":"s3cret-pass","role":"client"}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post("/api/v1/users/login", `{"email":"amara@example.com","password":"s3cret-pass"}`, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Data.AccessToken)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/consultations/points", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	points, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer points.Body.Close()

	assert.Equal(t, http.StatusOK, points.StatusCode)
	var balance struct {
		Data struct {
			Balance int    `json:"balance"`
			Email   string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(points.Body).Decode(&balance))
	assert.Equal(t, 0, balance.Data.Balance)
	assert.Equal(t, "amara@example.com", balance.Data.Email)
}
