package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/pkg/jwtutil"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		msg    string
	}{
		{header: "", msg: "missing authorization header"},
		{header: "Basic dXNlcjpwdw==", msg: "invalid authorization scheme"},
		{header: "Bearer", msg: "invalid authorization scheme"},
		{header: "Bearer   ", msg: "invalid authorization scheme"},
		{header: "Bearer \t", msg: "invalid authorization scheme"},
		{header: "Bearer abc", token: "abc"},
		{header: "bearer  abc ", token: "abc"},
	}
	for _, tc := range cases {
		token, msg := bearerToken(tc.header)
		assert.Equal(t, tc.token, token, tc.header)
		assert.Equal(t, tc.msg, msg, tc.header)
	}
}

func TestAuthJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthJWT("secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserIDKey), "username": c.GetString(ContextUsernameKey)})
	})

	token, err := jwtutil.GenerateToken("secret", time.Hour, 7, "ada")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"username":"ada"}`, rec.Body.String())

	other, err := jwtutil.GenerateToken("other", time.Hour, 7, "ada")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
