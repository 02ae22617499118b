package middlewares

import (
	"CityHealth/utils"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", TokenAuthMiddleware(), func(c *gin.Context) {
		userID, err := ExtractUserIDFromContext(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		role, err := ExtractUserRoleFromContext(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"userId": userID, "role": role})
	})
	return router
}

func TestTokenAuthMiddlewareAcceptsStaffToken(t *testing.T) {
	t.Setenv("SYMMETRIC_KEY", "0123456789abcdef0123456789abcdef")

	token, err := utils.GenerateAccessToken("7", "Doctor")
	assert.NoError(t, err)

	router := newAuthedRouter()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected?accessToken="+token, nil)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, 200, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"userId":"7"`)
	assert.Contains(t, recorder.Body.String(), `"role":"Doctor"`)
}

func TestTokenAuthMiddlewareRejectsMissingToken(t *testing.T) {
	t.Setenv("SYMMETRIC_KEY", "0123456789abcdef0123456789abcdef")

	router := newAuthedRouter()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, 401, recorder.Code)
}

func TestTokenAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	t.Setenv("SYMMETRIC_KEY", "0123456789abcdef0123456789abcdef")

	router := newAuthedRouter()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected?accessToken=not-a-token", nil)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, 401, recorder.Code)
}

func TestRoleAuthMiddlewareEnforcesRole(t *testing.T) {
	t.Setenv("SYMMETRIC_KEY", "0123456789abcdef0123456789abcdef")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", TokenAuthMiddleware(), RoleAuthMiddleware("Admin"), func(c *gin.Context) {
		c.Status(200)
	})

	doctorToken, err := utils.GenerateAccessToken("7", "Doctor")
	assert.NoError(t, err)
	adminToken, err := utils.GenerateAccessToken("1", "Admin")
	assert.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/admin?accessToken="+doctorToken, nil))
	assert.Equal(t, 403, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/admin?accessToken="+adminToken, nil))
	assert.Equal(t, 200, recorder.Code)
}

func TestValidateBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ValidateBearerToken("clinic-secret"))
	router.GET("/", func(c *gin.Context) { c.Status(200) })

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 401, recorder.Code)

	recorder = httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer wrong-secret")
	router.ServeHTTP(recorder, request)
	assert.Equal(t, 401, recorder.Code)

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer clinic-secret")
	router.ServeHTTP(recorder, request)
	assert.Equal(t, 200, recorder.Code)
}
