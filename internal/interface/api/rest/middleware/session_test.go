package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrive/internal/infrastructure/jwt"
)

func newSessionRouter(j *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Session(j, "/user/login"), func(c *gin.Context) {
		claims, ok := SessionFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, claims.Username)
	})
	return r
}

func TestSession(t *testing.T) {
	j := jwt.New("test-secret", 0)
	valid, err := j.Issue("5f1c3a9e-3b1f-4a55-9d7e-2d2b8a3c0a11", "alice", "alice@example.com")
	require.NoError(t, err)
	forged, err := jwt.New("other-secret", 0).Issue("5f1c3a9e-3b1f-4a55-9d7e-2d2b8a3c0a11", "alice", "alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		cookie   *http.Cookie
		wantCode int
		wantBody string
		wantLoc  string
	}{
		{name: "no cookie", wantCode: http.StatusFound, wantLoc: "/user/login"},
		{name: "empty cookie", cookie: &http.Cookie{Name: SessionCookie, Value: ""}, wantCode: http.StatusFound, wantLoc: "/user/login"},
		{name: "garbage", cookie: &http.Cookie{Name: SessionCookie, Value: "abc.def.ghi"}, wantCode: http.StatusFound, wantLoc: "/user/login"},
		{name: "wrong secret", cookie: &http.Cookie{Name: SessionCookie, Value: forged}, wantCode: http.StatusFound, wantLoc: "/user/login"},
		{name: "other cookie name", cookie: &http.Cookie{Name: "session", Value: valid}, wantCode: http.StatusFound, wantLoc: "/user/login"},
		{name: "valid", cookie: &http.Cookie{Name: SessionCookie, Value: valid}, wantCode: http.StatusOK, wantBody: "alice"},
	}

	r := newSessionRouter(j)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantLoc, rr.Header().Get("Location"))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestSessionFrom_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := SessionFrom(c)
	assert.False(t, ok)
}

func TestSessionCookie(t *testing.T) {
	t.Run("set without ttl", func(t *testing.T) {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		SetSessionCookie(c, "tok", CookieOptions{})

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		ck := cookies[0]
		assert.Equal(t, SessionCookie, ck.Name)
		assert.Equal(t, "tok", ck.Value)
		assert.Equal(t, "/", ck.Path)
		assert.True(t, ck.HttpOnly)
		assert.False(t, ck.Secure)
		assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
		assert.Zero(t, ck.MaxAge)
		assert.NotContains(t, rr.Header().Get("Set-Cookie"), "Max-Age")
	})

	t.Run("set with ttl and secure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		SetSessionCookie(c, "tok", CookieOptions{Secure: true, TTL: time.Hour})

		ck := rr.Result().Cookies()[0]
		assert.True(t, ck.Secure)
		assert.Equal(t, 3600, ck.MaxAge)
	})

	t.Run("clear", func(t *testing.T) {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		ClearSessionCookie(c, CookieOptions{})

		ck := rr.Result().Cookies()[0]
		assert.Equal(t, SessionCookie, ck.Name)
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	})
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "password=%2A%2A%2A&username=alice",
		maskPassword("application/x-www-form-urlencoded", "username=alice&password=pass1"))
	assert.Equal(t, `{"username":"alice","password":"***"}`,
		maskPassword("application/json", `{"username":"alice","password":"pa\"ss1"}`))
	assert.Equal(t, "", maskPassword("application/json", ""))
}
