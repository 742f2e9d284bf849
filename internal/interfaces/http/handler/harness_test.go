package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	"github.com/assetflow/backend/internal/application/identity"
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/auth"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/interfaces/http/dto"
	"github.com/assetflow/backend/internal/interfaces/http/middleware"
	"github.com/assetflow/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// actorHeader names the seeded member a test request acts as
const actorHeader = "X-Test-Actor"

// testEnv serves real application services over a seeded sqlite database
type testEnv struct {
	f         *testutil.Fixture
	engine    *gin.Engine
	actors    map[string]shared.Actor
	tokens    *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist

	workflow      *appworkflow.Service
	products      *appcatalog.ProductService
	users         *identity.UserService
	registrations *identity.RegistrationService
	departments   *identity.DepartmentService
	authService   *identity.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	f := testutil.NewFixture(t)
	log := zap.NewNop()
	scope := persistence.NewGormTransactionScope(f.DB)
	employees := persistence.NewGormEmployeeRepository(f.DB)
	usersRepo := persistence.NewGormUserRepository(f.DB)
	productsRepo := persistence.NewGormProductRepository(f.DB)

	env := &testEnv{
		f:         f,
		engine:    gin.New(),
		tokens:    auth.NewJWTService(config.JWTConfig{Secret: "handler-test-secret-handler-test-secret", AccessTokenExpiration: time.Hour, Issuer: "assetflow-test"}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
	}
	env.actors = map[string]shared.Actor{
		"admin":   f.Admin.Actor(),
		"monitor": f.Monitor.Actor(),
		"alice":   f.Alice.Actor(),
		"bob":     f.Bob.Actor(),
	}

	env.workflow = appworkflow.NewService(
		scope.Workflow(),
		persistence.NewGormRequestRepository(f.DB),
		persistence.NewGormAssignmentRepository(f.DB),
		productsRepo,
		employees,
	)
	env.products = appcatalog.NewProductService(scope.Catalog(), productsRepo, persistence.NewGormStockHistoryRepository(f.DB), log)
	env.users = identity.NewUserService(scope.Identity(), usersRepo, employees, log)
	env.registrations = identity.NewRegistrationService(scope.Identity(), persistence.NewGormRegistrationRepository(f.DB), log)
	env.departments = identity.NewDepartmentService(scope.Identity(), persistence.NewGormDepartmentRepository(f.DB), persistence.NewGormMonitorAssignmentRepository(f.DB), log)
	env.authService = identity.NewAuthService(usersRepo, employees, env.tokens, env.blacklist, log)

	env.engine.Use(func(c *gin.Context) {
		c.Set(middleware.RequestIDKey, "test-request")
		if name := c.GetHeader(actorHeader); name != "" {
			if actor, ok := env.actors[name]; ok {
				c.Set(middleware.JWTActorKey, actor)
			}
		}
		c.Next()
	})
	return env
}

// do sends a JSON request as the named member; an empty name is anonymous
func (e *testEnv) do(t *testing.T, as, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var headers map[string]string
	if as != "" {
		headers = map[string]string{actorHeader: as}
	}
	return testutil.ServeJSON(t, e.engine, method, path, body, headers)
}

// doWithHeader sends an anonymous bodyless request carrying one extra header
func (e *testEnv) doWithHeader(t *testing.T, method, path, key, value string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.ServeJSON(t, e.engine, method, path, nil, map[string]string{key: value})
}

// envelope is dto.Response with the data left raw for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// decodeData unmarshals the data field of a success response into T
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// requireError asserts an error envelope with the given status and code
func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	testutil.RequireError(t, w, status, code)
}

func idPath(prefix string, id uuid.UUID, suffix string) string {
	return prefix + "/" + id.String() + suffix
}
