package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/oselz/projecthub-api/internal/models"
)

func performWithRole(t *testing.T, role models.UserRole, authed bool, allowed ...models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	_, router := gin.CreateTestContext(recorder)

	router.GET("/guarded",
		func(c *gin.Context) {
			if authed {
				c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
			}
		},
		RequireRoles(allowed...),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	recorder := performWithRole(t, models.RoleAdmin, true, models.RoleAdmin, models.RoleManager)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireRolesRejectsUnlistedRole(t *testing.T) {
	recorder := performWithRole(t, models.RoleMember, true, models.RoleAdmin, models.RoleManager)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	recorder := performWithRole(t, models.RoleAdmin, false, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
