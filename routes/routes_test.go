package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mealconnect-api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Registering the full route table must not panic (gin rejects
// conflicting patterns at registration time), and the health endpoint
// must answer without any backing services.
func TestSetupRoutesAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &handlers.Handler{Log: zap.NewNop(), JWTSecret: []byte("test")}

	assert.NotPanics(t, func() { SetupRoutes(r, h) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, &handlers.Handler{Log: zap.NewNop(), JWTSecret: []byte("test")})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user/profile"},
		{http.MethodPost, "/api/menu-items"},
		{http.MethodPost, "/api/pickups/abc/claim"},
		{http.MethodGet, "/api/admin/pickups"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}
