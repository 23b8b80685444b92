package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestCookieManager_SetPairAndClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewCookie("example.com", true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	m.SetPair(c, "a", time.Now().Add(time.Hour), "r", time.Now().Add(24*time.Hour))

	got := cookiesByName(rec)
	require.Contains(t, got, AccessCookie)
	require.Contains(t, got, RefreshCookie)
	assert.Equal(t, "a", got[AccessCookie].Value)
	assert.True(t, got[AccessCookie].HttpOnly)
	assert.True(t, got[AccessCookie].Secure)
	assert.InDelta(t, 3600, got[AccessCookie].MaxAge, 2)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	m.Clear(c)
	got = cookiesByName(rec)
	assert.Equal(t, "", got[AccessCookie].Value)
	assert.Less(t, got[RefreshCookie].MaxAge, 0)
}

func TestMaxAgeFrom_PastIsZero(t *testing.T) {
	assert.Equal(t, 0, maxAgeFrom(time.Now().Add(-time.Minute)))
}
