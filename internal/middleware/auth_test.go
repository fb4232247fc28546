package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
)

const testSecret = "test-secret"

func testRouter(t *testing.T, captured *uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	am := NewAuthMiddleware(log, testSecret)

	router := gin.New()
	router.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
			*captured = rd.UserID
		}
		c.Status(http.StatusOK)
	})
	return router
}

func signedToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireAuthBearerHeader(t *testing.T) {
	var captured uuid.UUID
	router := testRouter(t, &captured)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, userID.String()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured != userID {
		t.Fatalf("expected user %s in context, got %s", userID, captured)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	var captured uuid.UUID
	router := testRouter(t, &captured)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+signedToken(t, testSecret, userID.String()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured != userID {
		t.Fatalf("expected user %s in context, got %s", userID, captured)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	var captured uuid.UUID
	router := testRouter(t, &captured)

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong secret", signedToken(t, "other-secret", uuid.New().String())},
		{"non-uuid subject", signedToken(t, testSecret, "not-a-uuid")},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, rec.Code)
		}
	}
}
