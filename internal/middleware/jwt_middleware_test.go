package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/utils"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret")

	var actor string
	r := gin.New()
	r.Use(NewJWTMiddleware().Handle())
	r.GET("/admin/ping", func(c *gin.Context) {
		actor = c.GetString("actor")
		c.Status(http.StatusOK)
	})
	return r, &actor
}

func TestJWTMiddleware_ActorFromEmail(t *testing.T) {
	r, actor := newAuthTestRouter(t)

	token, err := utils.GenerateJWT("user-42", "ops@example.com", time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *actor != "ops@example.com" {
		t.Fatalf("expected actor %q, got %q", "ops@example.com", *actor)
	}
}

func TestJWTMiddleware_ActorFallsBackToSubject(t *testing.T) {
	r, actor := newAuthTestRouter(t)

	// Service tokens are issued without an email claim.
	token, err := utils.GenerateJWT("batch-runner", "", time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *actor != "batch-runner" {
		t.Fatalf("expected actor %q, got %q", "batch-runner", *actor)
	}
}

func TestJWTMiddleware_MissingHeaderRejected(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestJWTMiddleware_ExpiredTokenRejected(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	token, err := utils.GenerateJWT("user-42", "ops@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
