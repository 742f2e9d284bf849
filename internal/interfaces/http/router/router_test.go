package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/interfaces/http/handler"
	"github.com/assetflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(engine, WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assets := NewDomainGroup("assets", "/assets")
	assets.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	teams := NewDomainGroup("teams", "/teams")
	teams.GET("", func(c *gin.Context) { c.String(http.StatusOK, "teams") })

	r.Register(assets).Register(teams).Setup()

	for path, body := range map[string]string{"/api/v1/assets/ping": "pong", "/api/v1/teams": "teams"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, body, w.Body.String())
	}
}

func TestDomainGroup(t *testing.T) {
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }

	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/products")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/products", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("items", "/items").
			GET("/:id", ok).
			POST("", ok).
			PUT("/:id", ok).
			DELETE("/:id", ok).
			Handle(http.MethodPatch, "/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/items/1"},
			{http.MethodPost, "/api/v1/items"},
			{http.MethodPut, "/api/v1/items/1"},
			{http.MethodDelete, "/api/v1/items/1"},
			{http.MethodPatch, "/api/v1/items/1"},
		} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("middleware reaches subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("products", "/products").Use(func(c *gin.Context) {
			c.Header("X-Group", "products")
			c.Next()
		})
		g.Group("attachments", "/:id/attachments").GET("", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/42/attachments", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "products", w.Header().Get("X-Group"))
	})

	t.Run("routes are listed with full paths", func(t *testing.T) {
		g := NewDomainGroup("products", "/products").GET("", ok).POST("/:id/restock", ok)
		g.Group("attachments", "/:id/attachments").DELETE("/:attachment_id", ok)

		assert.Equal(t, []RouteInfo{
			{Method: http.MethodGet, Path: "/products", Group: "products"},
			{Method: http.MethodDelete, Path: "/products/:id/attachments/:attachment_id", Group: "attachments"},
			{Method: http.MethodPost, Path: "/products/:id/restock", Group: "products"},
		}, g.Routes())
	})
}

// stubHandlers returns handlers with no services behind them; only routes that
// a guard rejects may be exercised
func stubHandlers() Handlers {
	return Handlers{
		Auth:         &handler.AuthHandler{},
		Registration: &handler.RegistrationHandler{},
		Department:   &handler.DepartmentHandler{},
		User:         &handler.UserHandler{},
		Request:      &handler.RequestHandler{},
		Assignment:   &handler.AssignmentHandler{},
		Product:      &handler.ProductHandler{},
		Attachment:   &handler.AttachmentHandler{},
		Report:       &handler.ReportHandler{},
		Activity:     &handler.ActivityHandler{},
		Assistant:    &handler.AssistantHandler{},
		System:       handler.NewSystemHandler("assetflow", "test"),
		Feed:         &handler.FeedHandler{},
	}
}

func newAPI(t *testing.T, h Handlers, actor *shared.Actor) *gin.Engine {
	t.Helper()

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.JWTActorKey, *actor)
		}
		c.Next()
	})
	r := NewRouter(engine)
	for _, g := range APIGroups(h, zap.NewNop()) {
		r.Register(g)
	}
	r.Setup()
	RegisterProbes(engine, h.System)
	return engine
}

func TestAPIGroups_RouteTable(t *testing.T) {
	var routes []string
	for _, g := range APIGroups(stubHandlers(), zap.NewNop()) {
		for _, r := range g.Routes() {
			routes = append(routes, r.Method+" "+r.Path)
		}
	}

	for _, want := range []string{
		"POST /auth/login",
		"POST /registrations",
		"POST /registrations/:id/decision",
		"POST /monitor-links",
		"DELETE /departments/:id/monitors/:monitor_id",
		"GET /users/:id/clearance",
		"POST /requests",
		"POST /requests/:id/decision",
		"POST /requests/:id/reactivate",
		"POST /assignments",
		"POST /assignments/:id/return/decision",
		"POST /assignments/:id/extension/decision",
		"GET /products/categories",
		"POST /products/:id/calibration",
		"GET /products/:id/attachments/:attachment_id/url",
		"GET /reports/export/outstanding",
		"GET /activity",
		"POST /assistant/ask",
		"GET /feed/ws",
		"GET /system/ping",
	} {
		assert.Contains(t, routes, want)
	}

	// every route registers cleanly with gin
	assert.NotPanics(t, func() { newAPI(t, stubHandlers(), nil) })
}

func TestAPIGroups_SkipsMissingHandlers(t *testing.T) {
	groups := APIGroups(Handlers{System: handler.NewSystemHandler("assetflow", "test")}, zap.NewNop())
	require.Len(t, groups, 1)
	assert.Equal(t, "system", groups[0].Name())
}

func TestAPIGroups_Guards(t *testing.T) {
	employeeID := uuid.New()
	employee := shared.Actor{UserID: uuid.New(), Role: shared.RoleEmployee, EmployeeID: &employeeID}
	monitor := shared.Actor{UserID: uuid.New(), Role: shared.RoleMonitor}
	id := uuid.NewString()

	tests := []struct {
		name   string
		actor  *shared.Actor
		method string
		path   string
		status int
		code   string
	}{
		{"anonymous report", nil, http.MethodGet, "/api/v1/reports/dashboard", http.StatusUnauthorized, shared.CodeUnauthorized},
		{"employee report", &employee, http.MethodGet, "/api/v1/reports/overdue", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee export", &employee, http.MethodGet, "/api/v1/reports/export/ledger", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee approves", &employee, http.MethodPost, "/api/v1/requests/" + id + "/decision", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee assigns", &employee, http.MethodPost, "/api/v1/assignments", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee return decision", &employee, http.MethodPost, "/api/v1/assignments/" + id + "/return/decision", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee restocks", &employee, http.MethodPost, "/api/v1/products/" + id + "/restock", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee uploads", &employee, http.MethodPost, "/api/v1/products/" + id + "/attachments", http.StatusForbidden, shared.CodePermissionDenied},
		{"employee activity", &employee, http.MethodGet, "/api/v1/activity", http.StatusForbidden, shared.CodePermissionDenied},
		{"monitor lists users", &monitor, http.MethodGet, "/api/v1/users", http.StatusForbidden, shared.CodePermissionDenied},
		{"monitor changes role", &monitor, http.MethodPut, "/api/v1/users/" + id + "/role", http.StatusForbidden, shared.CodePermissionDenied},
		{"monitor decides registration", &monitor, http.MethodPost, "/api/v1/registrations/" + id + "/decision", http.StatusForbidden, shared.CodePermissionDenied},
		{"monitor links monitors", &monitor, http.MethodGet, "/api/v1/monitor-links", http.StatusForbidden, shared.CodePermissionDenied},
		{"monitor creates department", &monitor, http.MethodPost, "/api/v1/departments", http.StatusForbidden, shared.CodePermissionDenied},
	}

	engines := map[*shared.Actor]*gin.Engine{
		nil:       newAPI(t, stubHandlers(), nil),
		&employee: newAPI(t, stubHandlers(), &employee),
		&monitor:  newAPI(t, stubHandlers(), &monitor),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engines[tt.actor].ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.status, w.Code, w.Body.String())

			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestRegisterProbes(t *testing.T) {
	engine := newAPI(t, stubHandlers(), nil)

	for _, path := range []string{"/health", "/healthz", "/ready", "/api/v1/health", "/api/v1/system/ping"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
