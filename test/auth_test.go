package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dienstplan/internal/auth"
	"dienstplan/internal/handlers"
	"dienstplan/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthServer(t *testing.T) *httptest.Server {
	ts := setupTestServer(t)
	ts.Close()

	r := gin.Default()

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/refresh", handlers.RefreshToken)
	}

	api := r.Group("/api", auth.AuthMiddleware())
	{
		api.GET("/profile", handlers.GetProfile)
	}

	return httptest.NewServer(r)
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	var payload bytes.Buffer
	require.NoError(t, json.NewEncoder(&payload).Encode(body))
	resp, err := http.Post(ts.URL+path, "application/json", &payload)
	require.NoError(t, err)
	return resp
}

func TestAuthFlow(t *testing.T) {
	ts := setupAuthServer(t)
	defer ts.Close()

	register := gin.H{
		"firstName": "Jürgen",
		"lastName":  "Müller",
		"email":     "mueller@example.com",
		"password":  "geheim123",
	}

	// 1. Регистрация.
	resp := postJSON(t, ts, "/auth/register", register)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Повторная регистрация с тем же email.
	resp = postJSON(t, ts, "/auth/register", register)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp response.ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "EMAIL_EXISTS", errResp.Code)

	// 2. Вход.
	var tokens response.TokenResponse
	resp = postJSON(t, ts, "/auth/login", gin.H{"email": register["email"], "password": register["password"]})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// Неверный пароль.
	resp = postJSON(t, ts, "/auth/login", gin.H{"email": register["email"], "password": "falsch"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// 3. Профиль по access-токену.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, resp, &profile)
	assert.Equal(t, "mueller@example.com", profile.Email)
	assert.Equal(t, "User", profile.Role)

	// Без токена доступ закрыт.
	resp, err = http.Get(ts.URL + "/api/profile")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// 4. Обновление токенов.
	resp = postJSON(t, ts, "/auth/refresh", gin.H{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed response.TokenResponse
	decode(t, resp, &refreshed)
	assert.NotEmpty(t, refreshed.AccessToken)
}
