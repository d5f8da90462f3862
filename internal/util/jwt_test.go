package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"istas_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *model.User {
	u := &model.User{TenantID: "acme", Email: "ana@acme.test", Role: model.Analyst}
	u.ID = 7
	return u
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, model.Analyst, claims.Role)
}

func TestParseJWTRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "another-secret-another-secret-xx")
	assert.Error(t, err)

	expired, err := GenerateJWT(testUser(), testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.Error(t, err)
}

func TestParseJWTRequiresTenant(t *testing.T) {
	u := testUser()
	u.TenantID = ""
	token, err := GenerateJWT(u, testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, testSecret)
	assert.Error(t, err)
}

func TestSessionContextFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := SessionContext(c)
	assert.False(t, ok)

	c.Set(ContextUserKey, &Claims{UserID: 3, TenantID: "acme", Role: model.Admin})
	sc, ok := SessionContext(c)
	require.True(t, ok)
	assert.Equal(t, "acme", sc.TenantID)
	assert.Equal(t, uint(3), sc.UserID)
	assert.Equal(t, "admin", sc.Role)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, s := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(s)
		assert.Error(t, err, s)
	}
}
