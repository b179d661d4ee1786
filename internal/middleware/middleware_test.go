package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spendsight/internal/auth"
	apperrors "spendsight/internal/errors"
	"spendsight/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(tokens *auth.TokenIssuer, perm models.Permission) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogging(), ErrorHandler())
	r.GET("/open", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(apperrors.ErrCategoryNotFound) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })
	r.GET("/secure", AuthMiddleware(tokens), RequirePermission(perm), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID), "role": p.Role})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	r := newEngine(tokens, models.PermManageUsers)

	owner, _ := tokens.Generate(&models.User{Base: models.Base{ID: "usr_owner"}, Role: models.RoleOwner})
	admin, _ := tokens.Generate(&models.User{Base: models.Base{ID: "usr_admin"}, Role: models.RoleAdmin})

	t.Run("missing_header", func(t *testing.T) {
		w := get(r, "/secure", "")
		if w.Code != http.StatusUnauthorized || errorCode(t, w) != "UNAUTHORIZED" {
			t.Errorf("expected 401, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("bad_format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/secure", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("invalid_token", func(t *testing.T) {
		if w := get(r, "/secure", "garbage"); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("missing_permission", func(t *testing.T) {
		w := get(r, "/secure", admin)
		if w.Code != http.StatusForbidden || errorCode(t, w) != "FORBIDDEN" {
			t.Errorf("expected 403, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("allowed", func(t *testing.T) {
		w := get(r, "/secure", owner)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
		}
		var body map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["user_id"] != "usr_owner" || body["role"] != "owner" {
			t.Errorf("unexpected body %v", body)
		}
	})
}

func TestErrorHandler(t *testing.T) {
	r := newEngine(auth.NewTokenIssuer("secret", time.Hour), models.PermViewTransactions)

	t.Run("app_error", func(t *testing.T) {
		w := get(r, "/fail", "")
		if w.Code != http.StatusNotFound || errorCode(t, w) != "CATEGORY_NOT_FOUND" {
			t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("unexpected_error", func(t *testing.T) {
		w := get(r, "/boom", "")
		if w.Code != http.StatusInternalServerError || errorCode(t, w) != "INTERNAL_ERROR" {
			t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
		}
	})
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	r := newEngine(auth.NewTokenIssuer("secret", time.Hour), models.PermViewTransactions)

	w := get(r, "/open", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected propagated request id, got %q", got)
	}
}
