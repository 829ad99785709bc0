package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demaesdadas/aldeia/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-jwt-secret")
	os.Setenv("MODERATION_SECRET", "test-moderation-secret")
	os.Setenv("MODERATOR_EMAILS", "guardia@demaesdadas.app")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/probe", AuthRequired(), func(ctx *gin.Context) {
		uid, _ := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"uid": uid})
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(r, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(r, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := utils.GenerateToken(7, "Maria", "maria@example.com", time.Hour)
		require.NoError(t, err)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"uid":7`)
	})
}

func TestAuthOptional(t *testing.T) {
	r := gin.New()
	r.GET("/probe", AuthOptional(), func(ctx *gin.Context) {
		_, authed := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"authed": authed})
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		w := doRequest(r, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authed":false`)
	})

	t.Run("bad token still passes, unauthenticated", func(t *testing.T) {
		w := doRequest(r, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authed":false`)
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		token, err := utils.GenerateToken(7, "Maria", "maria@example.com", time.Hour)
		require.NoError(t, err)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authed":true`)
	})
}

func TestModeratorRequired(t *testing.T) {
	r := gin.New()
	r.GET("/probe", AuthRequired(), ModeratorRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	t.Run("regular account forbidden", func(t *testing.T) {
		token, err := utils.GenerateToken(7, "Maria", "maria@example.com", time.Hour)
		require.NoError(t, err)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("moderator passes", func(t *testing.T) {
		token, err := utils.GenerateToken(1, "Guardiã", "guardia@demaesdadas.app", time.Hour)
		require.NoError(t, err)
		w := doRequest(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
