package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/testutil"
	"git.sr.ht/~relay/buni-backend/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := testutil.SetupTestEnvironment(t)

	testCases := []struct {
		name           string
		payload        any
		expectedStatus int
		expectedBody   string
	}{
		{"Success", types.RegisterRequest{Username: "carol", Password: "secret1", FirstName: "Carol"}, http.StatusCreated, "User registered successfully"},
		{"Duplicate", types.RegisterRequest{Username: testutil.User1Username, Password: "secret1", FirstName: "Again"}, http.StatusConflict, "Username already exists"},
		{"MissingFields", types.RegisterRequest{Username: "dave"}, http.StatusBadRequest, "are required"},
		{"ShortPassword", types.RegisterRequest{Username: "erin", Password: "123", FirstName: "Erin"}, http.StatusBadRequest, "at least 6 characters"},
		{"InvalidBody", "nope", http.StatusBadRequest, "Invalid request body"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/v1/register", "", tc.payload)
			rr := testutil.ExecuteRequest(t, env.Handler, req)
			testutil.AssertStatusCode(t, rr, tc.expectedStatus)
			testutil.AssertBodyContains(t, rr, tc.expectedBody)
		})
	}
}

func TestLogin(t *testing.T) {
	env := testutil.SetupTestEnvironment(t)

	t.Run("Success", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/v1/login", "",
			types.LoginRequest{Username: testutil.User1Username, Password: testutil.TestPassword})
		rr := testutil.ExecuteRequest(t, env.Handler, req)
		testutil.AssertStatusCode(t, rr, http.StatusOK)

		var resp types.LoginResponse
		testutil.DecodeJSONResponse(t, rr, &resp)
		assert.Equal(t, env.UserID, resp.UserID)
		assert.Equal(t, testutil.User1Name, resp.FirstName)

		claims, err := auth.ParseAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, env.UserID, claims.UserID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/v1/login", "",
			types.LoginRequest{Username: testutil.User1Username, Password: "wrong-password"})
		rr := testutil.ExecuteRequest(t, env.Handler, req)
		testutil.AssertStatusCode(t, rr, http.StatusUnauthorized)
		testutil.AssertBodyContains(t, rr, "Invalid credentials")
	})

	t.Run("UnknownUser", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/v1/login", "",
			types.LoginRequest{Username: "nobody", Password: testutil.TestPassword})
		rr := testutil.ExecuteRequest(t, env.Handler, req)
		testutil.AssertStatusCode(t, rr, http.StatusUnauthorized)
	})
}

func TestAccessToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := auth.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := auth.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)

	t.Run("WrongSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "another-secret")
		_, err := auth.ParseAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		signed, err := expired.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.ParseAccessToken(signed)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("NoUser", func(t *testing.T) {
		anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := anonymous.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.ParseAccessToken(signed)
		assert.Error(t, err)
	})
}

func TestAuthMiddleware(t *testing.T) {
	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = auth.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.AuthMiddleware(next)

	token, err := auth.GenerateAccessToken(7)
	require.NoError(t, err)

	testCases := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{"Valid", "Bearer " + token, http.StatusNoContent, ""},
		{"Missing", "", http.StatusUnauthorized, "Authorization header required"},
		{"BadFormat", "Token " + token, http.StatusUnauthorized, "must be Bearer"},
		{"Garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "Invalid token"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotUserID = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := testutil.ExecuteRequest(t, handler, req)
			testutil.AssertStatusCode(t, rr, tc.expectedStatus)
			testutil.AssertBodyContains(t, rr, tc.expectedBody)
			if tc.expectedStatus == http.StatusNoContent {
				assert.Equal(t, int64(7), gotUserID)
			}
		})
	}
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	db := testutil.OpenTestDB(t)
	_, err := auth.CreateUser(context.Background(), db, "frank", "password", "Frank")
	require.NoError(t, err)
	_, err = auth.CreateUser(context.Background(), db, "frank", "password", "Frank")
	assert.ErrorIs(t, err, auth.ErrUserExists)
}
