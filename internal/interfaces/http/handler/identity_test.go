package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/assetflow/backend/internal/application/identity"
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/interfaces/http/dto"
	"github.com/assetflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_LoginMeLogout(t *testing.T) {
	env := newTestEnv(t)
	env.f.AddMemberWithPassword(t, "carol", "s3cretpass1", shared.RoleEmployee)
	h := NewAuthHandler(env.authService)

	// stands in for the JWT middleware on the logout route
	withClaims := func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if claims, err := env.tokens.Validate(raw); err == nil {
			c.Set(middleware.JWTClaimsKey, claims)
		}
		c.Next()
	}
	env.engine.POST("/auth/login", h.Login)
	env.engine.GET("/auth/me", h.GetCurrentUser)
	env.engine.POST("/auth/logout", withClaims, h.Logout)
	env.engine.PUT("/auth/password", h.ChangePassword)

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, "", http.MethodPost, "/auth/login", gin.H{"username": "carol", "password": "nope12345"})
		requireError(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		w := env.do(t, "", http.MethodPost, "/auth/login", gin.H{"username": "mallory", "password": "nope12345"})
		requireError(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("missing password", func(t *testing.T) {
		w := env.do(t, "", http.MethodPost, "/auth/login", gin.H{"username": "carol"})
		requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)
	})

	w := env.do(t, "", http.MethodPost, "/auth/login", gin.H{"username": "carol", "password": "s3cretpass1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeData[identity.LoginResult](t, w)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "carol", result.User.Username)
	require.NotNil(t, result.User.Employee)
	assert.Equal(t, env.f.Department.ID, result.User.Employee.DepartmentID)

	w = env.do(t, "alice", http.MethodGet, "/auth/me", nil)
	me := decodeData[identity.UserResponse](t, w)
	assert.Equal(t, env.f.Alice.User.ID, me.ID)
	assert.Equal(t, "employee", me.Role)

	w = env.do(t, "", http.MethodGet, "/auth/me", nil)
	requireError(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)

	req := env.do(t, "", http.MethodPost, "/auth/logout", nil)
	requireError(t, req, http.StatusUnauthorized, dto.ErrCodeUnauthorized)

	claims, err := env.tokens.Validate(result.AccessToken)
	require.NoError(t, err)
	w = env.doWithHeader(t, http.MethodPost, "/auth/logout", "Authorization", result.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	revoked, err := env.blacklist.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, _, err = env.authService.Authenticate(context.Background(), result.AccessToken)
	assert.Error(t, err)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.authService)
	env.engine.PUT("/auth/password", h.ChangePassword)

	w := env.do(t, "alice", http.MethodPut, "/auth/password", gin.H{"old_password": "wrong", "new_password": "another1pass"})
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	w = env.do(t, "alice", http.MethodPut, "/auth/password", gin.H{"old_password": "x", "new_password": "short"})
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)
}

func TestRegistrationHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewRegistrationHandler(env.registrations)
	env.engine.POST("/registrations", h.Submit)
	env.engine.GET("/registrations", h.List)
	env.engine.POST("/registrations/:id/decision", h.Process)

	signup := gin.H{
		"username":      "dave",
		"email":         "dave@example.com",
		"password":      "letmein123",
		"full_name":     "Dave Field",
		"department_id": env.f.Department.ID,
	}

	w := env.do(t, "", http.MethodPost, "/registrations", signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decodeData[identity.RegistrationResponse](t, w)
	assert.Equal(t, "pending", reg.Status)
	assert.NotContains(t, w.Body.String(), "letmein123")

	w = env.do(t, "", http.MethodPost, "/registrations", signup)
	requireError(t, w, http.StatusConflict, shared.CodeAlreadyExists)

	w = env.do(t, "", http.MethodPost, "/registrations", gin.H{
		"username":      "alice",
		"email":         "other@example.com",
		"password":      "letmein123",
		"full_name":     "Alice Again",
		"department_id": env.f.Department.ID,
	})
	requireError(t, w, http.StatusConflict, shared.CodeAlreadyExists)

	w = env.do(t, "", http.MethodPost, "/registrations", gin.H{"username": "eve", "email": "not-an-email"})
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	w = env.do(t, "monitor", http.MethodGet, "/registrations", nil)
	requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

	w = env.do(t, "admin", http.MethodGet, "/registrations?status=pending", nil)
	pending := decodeData[[]identity.RegistrationResponse](t, w)
	require.Len(t, pending, 1)
	assert.Equal(t, reg.ID, pending[0].ID)

	w = env.do(t, "admin", http.MethodPost, idPath("/registrations", reg.ID, "/decision"), gin.H{"action": "approved"})
	approved := decodeData[identity.RegistrationResponse](t, w)
	assert.Equal(t, "approved", approved.Status)

	w = env.do(t, "admin", http.MethodPost, idPath("/registrations", reg.ID, "/decision"), gin.H{"action": "rejected"})
	requireError(t, w, http.StatusConflict, dto.ErrCodeInvalidState)

	_, err := env.authService.Login(context.Background(), identity.LoginInput{Username: "dave", Password: "letmein123"})
	assert.NoError(t, err, "approved sign-ups can log in")
}

func TestUserHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewUserHandler(env.users, env.workflow)
	env.engine.GET("/users", h.List)
	env.engine.GET("/users/:id", h.GetByID)
	env.engine.PUT("/users/:id/role", h.ChangeRole)
	env.engine.POST("/users/:id/deactivate", h.Deactivate)
	env.engine.POST("/users/:id/activate", h.Reactivate)
	env.engine.GET("/users/:id/clearance", h.Clearance)

	p := env.f.AddProduct(t, "Monitor Arm", 3)
	env.f.AddAssignment(t, p, env.f.Alice, 1)
	env.f.AddAssignment(t, p, env.f.Alice, 1)
	alice := env.f.Alice.User.ID
	bob := env.f.Bob.User.ID

	t.Run("list is admin only", func(t *testing.T) {
		w := env.do(t, "monitor", http.MethodGet, "/users", nil)
		requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

		w = env.do(t, "admin", http.MethodGet, "/users?role=employee", nil)
		users := decodeData[[]identity.UserResponse](t, w)
		assert.Len(t, users, 2)
	})

	t.Run("employees read only themselves", func(t *testing.T) {
		w := env.do(t, "alice", http.MethodGet, idPath("/users", alice, ""), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, "alice", http.MethodGet, idPath("/users", bob, ""), nil)
		requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)
	})

	t.Run("clearance", func(t *testing.T) {
		w := env.do(t, "alice", http.MethodGet, idPath("/users", alice, "/clearance"), nil)
		clearance := decodeData[appworkflow.ClearanceResponse](t, w)
		assert.EqualValues(t, 2, clearance.Outstanding)
		assert.False(t, clearance.Cleared)

		w = env.do(t, "monitor", http.MethodGet, idPath("/users", bob, "/clearance"), nil)
		assert.True(t, decodeData[appworkflow.ClearanceResponse](t, w).Cleared)

		w = env.do(t, "bob", http.MethodGet, idPath("/users", alice, "/clearance"), nil)
		requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)
	})

	t.Run("deactivation is refused while products are held", func(t *testing.T) {
		w := env.do(t, "admin", http.MethodPost, idPath("/users", alice, "/deactivate"), nil)
		requireError(t, w, http.StatusConflict, dto.ErrCodeOutstandingAssignments)
		resp := decodeEnvelope(t, w)
		assert.EqualValues(t, 2, resp.Error.Details["outstanding"])
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		w := env.do(t, "admin", http.MethodPost, idPath("/users", bob, "/deactivate"), nil)
		user := decodeData[identity.UserResponse](t, w)
		assert.False(t, user.Active)

		w = env.do(t, "admin", http.MethodPost, idPath("/users", bob, "/deactivate"), nil)
		requireError(t, w, http.StatusConflict, dto.ErrCodeInvalidState)

		w = env.do(t, "admin", http.MethodPost, idPath("/users", bob, "/activate"), nil)
		assert.True(t, decodeData[identity.UserResponse](t, w).Active)
	})

	t.Run("role changes", func(t *testing.T) {
		w := env.do(t, "admin", http.MethodPut, idPath("/users", bob, "/role"), gin.H{"role": "monitor"})
		assert.Equal(t, "monitor", decodeData[identity.UserResponse](t, w).Role)

		w = env.do(t, "admin", http.MethodPut, idPath("/users", bob, "/role"), gin.H{"role": "admin"})
		requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)

		w = env.do(t, "admin", http.MethodPut, idPath("/users", env.f.Admin.User.ID, "/role"), gin.H{"role": "employee"})
		requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

		w = env.do(t, "admin", http.MethodPut, idPath("/users", uuid.New(), "/role"), gin.H{"role": "monitor"})
		requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestDepartmentHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewDepartmentHandler(env.departments)
	env.engine.POST("/departments", h.Create)
	env.engine.GET("/departments", h.List)
	env.engine.DELETE("/departments/:id/monitors/:monitor_id", h.UnassignMonitor)
	env.engine.POST("/monitor-links", h.AssignMonitor)
	env.engine.GET("/monitor-links", h.ListMonitorLinks)

	w := env.do(t, "admin", http.MethodPost, "/departments", gin.H{"code": "OPS", "name": "Operations"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ops := decodeData[identity.DepartmentResponse](t, w)

	w = env.do(t, "admin", http.MethodPost, "/departments", gin.H{"code": "OPS", "name": "Operations Again"})
	requireError(t, w, http.StatusConflict, shared.CodeAlreadyExists)

	w = env.do(t, "monitor", http.MethodPost, "/departments", gin.H{"code": "QA", "name": "Quality"})
	requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

	w = env.do(t, "", http.MethodGet, "/departments", nil)
	assert.Len(t, decodeData[[]identity.DepartmentResponse](t, w), 2)

	w = env.do(t, "admin", http.MethodPost, "/monitor-links", gin.H{"monitor_id": env.f.Alice.User.ID, "department_id": ops.ID})
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	w = env.do(t, "admin", http.MethodPost, "/monitor-links", gin.H{"monitor_id": env.f.Monitor.User.ID, "department_id": ops.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, "admin", http.MethodGet, "/monitor-links?department_id="+ops.ID.String(), nil)
	links := decodeData[[]identity.MonitorLinkResponse](t, w)
	require.Len(t, links, 1)
	assert.Equal(t, env.f.Monitor.User.ID, links[0].MonitorID)

	w = env.do(t, "admin", http.MethodGet, "/monitor-links?department_id=bogus", nil)
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	w = env.do(t, "admin", http.MethodDelete, "/departments/"+ops.ID.String()+"/monitors/"+env.f.Monitor.User.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, "admin", http.MethodGet, "/monitor-links", nil)
	assert.Empty(t, decodeData[[]identity.MonitorLinkResponse](t, w))
}
