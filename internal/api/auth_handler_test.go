package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/mocks"
	"github.com/phrazzld/taskflow/internal/service"
	"github.com/phrazzld/taskflow/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payload     any
		wantStatus  int
		wantMessage string
	}{
		{
			name: "valid registration",
			payload: map[string]any{
				"username": "newuser",
				"email":    "new@example.com",
				"password": "password1234567",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "invalid email",
			payload: map[string]any{
				"username": "newuser",
				"email":    "invalid-email",
				"password": "password1234567",
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid email: invalid email format",
		},
		{
			name: "password too short",
			payload: map[string]any{
				"username": "newuser",
				"email":    "new@example.com",
				"password": "short",
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid password: too short",
		},
		{
			name: "missing username",
			payload: map[string]any{
				"email":    "new@example.com",
				"password": "password1234567",
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid username: required field",
		},
		{
			name: "duplicate email",
			payload: map[string]any{
				"username": "someoneelse",
				"email":    "existing@example.com",
				"password": "password1234567",
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "Email already exists",
		},
		{
			name: "duplicate username",
			payload: map[string]any{
				"username": "existing",
				"email":    "other@example.com",
				"password": "password1234567",
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "Username already exists",
		},
		{
			name:        "unknown field",
			payload:     `{"username":"a","email":"a@example.com","password":"password123","admin":true}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request format",
		},
		{
			name:        "empty body",
			payload:     "",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Request body is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t)
			srv.addUser("existing")

			rr := srv.do(http.MethodPost, "/api/auth/register", tt.payload, "")
			require.Equal(t, tt.wantStatus, rr.Code, "body: %s", rr.Body.String())

			if tt.wantStatus != http.StatusCreated {
				assert.Equal(t, tt.wantMessage, errorMessage(t, rr))
				return
			}

			resp := decodeBody[AuthResponse](t, rr)
			assert.NotEqual(t, uuid.Nil, resp.UserID)
			assert.Equal(t, "newuser", resp.Username)
			assert.NotEmpty(t, resp.ExpiresAt)

			claims, err := srv.jwt.ValidateToken(context.Background(), resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, resp.UserID, claims.UserID)

			stored, err := srv.stores.Users.GetByID(context.Background(), resp.UserID)
			require.NoError(t, err)
			assert.Equal(t, "hashed:password1234567", stored.HashedPassword)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{
			name:       "by username",
			payload:    map[string]any{"username": "alice", "password": "alice"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "by email",
			payload:    map[string]any{"email": "alice@example.com", "password": "alice"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			payload:    map[string]any{"username": "alice", "password": "wrong"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown user",
			payload:    map[string]any{"username": "nobody", "password": "alice"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no identifier",
			payload:    map[string]any{"password": "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			payload:    map[string]any{"username": "alice"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t)
			alice, _ := srv.addUser("alice")

			rr := srv.do(http.MethodPost, "/api/auth/login", tt.payload, "")
			require.Equal(t, tt.wantStatus, rr.Code, "body: %s", rr.Body.String())

			switch tt.wantStatus {
			case http.StatusOK:
				resp := decodeBody[AuthResponse](t, rr)
				assert.Equal(t, alice.ID, resp.UserID)
				assert.NotEmpty(t, resp.AccessToken)
			case http.StatusUnauthorized:
				assert.Equal(t, "Invalid credentials", errorMessage(t, rr))
			}
		})
	}
}

func TestLogin_TokenGenerationFailure(t *testing.T) {
	t.Parallel()

	stores := testutils.NewMemoryStores()
	stores.MustAddUser(t, "alice")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := service.NewUserService(stores.Users, &mocks.MockPasswordHasher{}, nil, log)
	handler := NewAuthHandler(users, &mocks.MockJWTService{Err: errors.New("signing failed")})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"alice"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to generate authentication token", errorMessage(t, rr))
	assert.NotContains(t, rr.Body.String(), "signing failed")
}

func TestLogin_ExpiryFollowsTokenLifetime(t *testing.T) {
	t.Parallel()

	stores := testutils.NewMemoryStores()
	stores.MustAddUser(t, "alice")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := service.NewUserService(stores.Users, &mocks.MockPasswordHasher{}, nil, log)
	handler := NewAuthHandler(users, &mocks.MockJWTService{Token: "tok", Lifetime: 30 * time.Minute})
	handler.timeFunc = func() time.Time { return testNow }

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"alice"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[AuthResponse](t, rr)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, "2026-03-10T09:30:00Z", resp.ExpiresAt)
}
