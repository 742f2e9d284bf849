package identity_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	appidentity "github.com/assetflow/backend/internal/application/identity"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/auth"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/assetflow/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	identity.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type harness struct {
	f             *testutil.Fixture
	auth          *appidentity.AuthService
	users         *appidentity.UserService
	departments   *appidentity.DepartmentService
	registrations *appidentity.RegistrationService
	blacklist     *auth.InMemoryTokenBlacklist
	events        *testutil.RecordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	f := testutil.NewFixture(t)
	scope := persistence.NewGormTransactionScope(f.DB).Identity()
	userRepo := persistence.NewGormUserRepository(f.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(f.DB)
	log := zap.NewNop()

	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "identity-test-secret-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "assetflow-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	events := &testutil.RecordingPublisher{}

	users := appidentity.NewUserService(scope, userRepo, employeeRepo, log)
	users.SetEventPublisher(events)
	users.SetSessionRevoker(blacklist, time.Hour)

	registrations := appidentity.NewRegistrationService(scope, persistence.NewGormRegistrationRepository(f.DB), log)
	registrations.SetEventPublisher(events)

	return &harness{
		f:             f,
		auth:          appidentity.NewAuthService(userRepo, employeeRepo, jwtSvc, blacklist, log),
		users:         users,
		departments:   appidentity.NewDepartmentService(scope, persistence.NewGormDepartmentRepository(f.DB), persistence.NewGormMonitorAssignmentRepository(f.DB), log),
		registrations: registrations,
		blacklist:     blacklist,
		events:        events,
	}
}

func TestDeactivate_RequiresClearance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	laptop := h.f.AddProduct(t, "ThinkPad", 5)
	h.f.AddAssignment(t, laptop, h.f.Alice, 1)
	h.f.AddAssignment(t, laptop, h.f.Alice, 2)

	_, err := h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Alice.User.ID)
	require.Error(t, err)

	var outstanding *shared.OutstandingAssignmentsError
	require.True(t, errors.As(err, &outstanding))
	assert.Equal(t, int64(2), outstanding.Count)
	assert.ErrorIs(t, err, shared.ErrOutstandingAssignments)

	var stored models.UserModel
	require.NoError(t, h.f.DB.First(&stored, "id = ?", h.f.Alice.User.ID).Error)
	assert.True(t, stored.Active)

	require.NoError(t, h.f.DB.Model(&models.ProductAssignmentModel{}).
		Where("employee_id = ?", h.f.Alice.Employee.ID).Update("is_returned", true).Error)

	out, err := h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Alice.User.ID)
	require.NoError(t, err)
	assert.False(t, out.Active)
	assert.Contains(t, h.events.Types(), identity.EventUserDeactivated)

	revoked, err := h.blacklist.IsUserRevoked(ctx, h.f.Alice.User.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked, "open sessions end on deactivation")
}

func TestDeactivate_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.users.Deactivate(ctx, h.f.Monitor.Actor(), h.f.Alice.User.ID)
	assert.ErrorIs(t, err, shared.ErrPermission)

	_, err = h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Admin.User.ID)
	assert.ErrorIs(t, err, shared.ErrPermission)

	_, err = h.users.Deactivate(ctx, h.f.Admin.Actor(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Bob.User.ID)
	require.NoError(t, err)
	_, err = h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Bob.User.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	out, err := h.users.Reactivate(ctx, h.f.Admin.Actor(), h.f.Bob.User.ID)
	require.NoError(t, err)
	assert.True(t, out.Active)
}

func TestDeactivate_RejectsPendingRequests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	laptop := h.f.AddProduct(t, "ThinkPad", 5)
	first := h.f.AddRequest(t, laptop, h.f.Alice, 2)
	second := h.f.AddRequest(t, laptop, h.f.Alice, 1)
	other := h.f.AddRequest(t, laptop, h.f.Bob, 1)

	_, err := h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Alice.User.ID)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		var stored models.ProductRequestModel
		require.NoError(t, h.f.DB.First(&stored, "id = ?", id).Error)
		assert.Equal(t, string(workflow.RequestStatusRejected), stored.Status)
		assert.Equal(t, appidentity.DeactivationRemark, stored.Remarks)
		require.NotNil(t, stored.ProcessedBy)
		assert.Equal(t, h.f.Admin.User.ID, *stored.ProcessedBy)
		assert.Equal(t, 2, stored.Version)
	}

	var untouched models.ProductRequestModel
	require.NoError(t, h.f.DB.First(&untouched, "id = ?", other.ID).Error)
	assert.Equal(t, string(workflow.RequestStatusPending), untouched.Status)

	assert.Equal(t, 5, h.f.Quantity(t, laptop.ID))
	assert.Contains(t, h.events.Types(), workflow.EventRequestRejected)
}

func TestDeactivate_OutstandingKeepsRequestsPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	laptop := h.f.AddProduct(t, "ThinkPad", 5)
	h.f.AddAssignment(t, laptop, h.f.Alice, 1)
	req := h.f.AddRequest(t, laptop, h.f.Alice, 1)

	_, err := h.users.Deactivate(ctx, h.f.Admin.Actor(), h.f.Alice.User.ID)
	assert.ErrorIs(t, err, shared.ErrOutstandingAssignments)

	var stored models.ProductRequestModel
	require.NoError(t, h.f.DB.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, string(workflow.RequestStatusPending), stored.Status)
}

func TestChangeRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.users.ChangeRole(ctx, h.f.Admin.Actor(), h.f.Alice.User.ID, appidentity.ChangeRoleInput{Role: "monitor"})
	require.NoError(t, err)
	assert.Equal(t, "monitor", out.Role)

	_, err = h.departments.AssignMonitor(ctx, h.f.Admin.Actor(), appidentity.MonitorLinkInput{
		MonitorID:    h.f.Alice.User.ID,
		DepartmentID: h.f.Department.ID,
	})
	require.NoError(t, err)

	links, err := h.departments.ListMonitorLinks(ctx, &h.f.Department.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = h.users.ChangeRole(ctx, h.f.Admin.Actor(), h.f.Alice.User.ID, appidentity.ChangeRoleInput{Role: "employee"})
	require.NoError(t, err)

	links, err = h.departments.ListMonitorLinks(ctx, &h.f.Department.ID)
	require.NoError(t, err)
	assert.Empty(t, links, "demotion drops monitor links")

	t.Run("admin accounts are immutable", func(t *testing.T) {
		other := h.f.AddMember(t, "admin2", shared.RoleAdmin)
		_, err := h.users.ChangeRole(ctx, h.f.Admin.Actor(), other.User.ID, appidentity.ChangeRoleInput{Role: "employee"})
		assert.ErrorIs(t, err, shared.ErrPermission)
	})

	t.Run("only admins change roles", func(t *testing.T) {
		_, err := h.users.ChangeRole(ctx, h.f.Monitor.Actor(), h.f.Bob.User.ID, appidentity.ChangeRoleInput{Role: "monitor"})
		assert.ErrorIs(t, err, shared.ErrPermission)
	})

	t.Run("employees cannot be linked to departments", func(t *testing.T) {
		_, err := h.departments.AssignMonitor(ctx, h.f.Admin.Actor(), appidentity.MonitorLinkInput{
			MonitorID:    h.f.Bob.User.ID,
			DepartmentID: h.f.Department.ID,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestRegistration_ApproveThenLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	input := appidentity.RegistrationInput{
		Username:     "carol",
		Email:        "Carol@Example.com",
		Password:     "s3cretpass",
		FullName:     "Carol Danvers",
		DepartmentID: h.f.Department.ID,
	}
	reg, err := h.registrations.Submit(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "pending", reg.Status)
	assert.Equal(t, "carol@example.com", reg.Email)

	_, err = h.registrations.Submit(ctx, input)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists, "a pending sign-up reserves the username")

	_, err = h.auth.Login(ctx, appidentity.LoginInput{Username: "carol", Password: "s3cretpass"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	out, err := h.registrations.Process(ctx, h.f.Admin.Actor(), reg.ID, appidentity.RegistrationDecisionInput{Action: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "approved", out.Status)

	login, err := h.auth.Login(ctx, appidentity.LoginInput{Username: "carol", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "employee", login.User.Role)
	require.NotNil(t, login.User.Employee)
	assert.Equal(t, h.f.Department.ID, login.User.Employee.DepartmentID)

	_, err = h.registrations.Process(ctx, h.f.Admin.Actor(), reg.ID, appidentity.RegistrationDecisionInput{Action: "rejected"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = h.registrations.Submit(ctx, input)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists, "an account reserves the username")
}

func TestRegistration_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input appidentity.RegistrationInput
		want  error
	}{
		{"unknown department", appidentity.RegistrationInput{Username: "dave", Email: "dave@example.com", Password: "s3cretpass", FullName: "Dave", DepartmentID: uuid.New()}, shared.ErrValidation},
		{"weak password", appidentity.RegistrationInput{Username: "dave", Email: "dave@example.com", Password: "short", FullName: "Dave", DepartmentID: h.f.Department.ID}, shared.ErrValidation},
		{"existing account", appidentity.RegistrationInput{Username: "alice", Email: "new@example.com", Password: "s3cretpass", FullName: "Alice", DepartmentID: h.f.Department.ID}, shared.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.registrations.Submit(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	reg, err := h.registrations.Submit(ctx, appidentity.RegistrationInput{Username: "erin", Email: "erin@example.com", Password: "s3cretpass", FullName: "Erin", DepartmentID: h.f.Department.ID})
	require.NoError(t, err)

	_, err = h.registrations.Process(ctx, h.f.Monitor.Actor(), reg.ID, appidentity.RegistrationDecisionInput{Action: "approved"})
	assert.ErrorIs(t, err, shared.ErrPermission)

	out, err := h.registrations.Process(ctx, h.f.Admin.Actor(), reg.ID, appidentity.RegistrationDecisionInput{Action: "rejected", Remarks: "unknown person"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", out.Status)
	assert.Equal(t, int64(4), h.f.Count(t, &models.UserModel{}), "rejection creates no account")

	pending, err := h.registrations.List(ctx, h.f.Admin.Actor(), appidentity.RegistrationListFilter{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Total)
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	dana := h.f.AddMemberWithPassword(t, "dana", "correct-horse1", shared.RoleEmployee)

	_, err := h.auth.Login(ctx, appidentity.LoginInput{Username: "dana", Password: "wrong-horse1"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	login, err := h.auth.Login(ctx, appidentity.LoginInput{Username: "DANA", Password: "correct-horse1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", login.TokenType)

	claims, actor, err := h.auth.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dana.User.ID, actor.UserID)
	require.NotNil(t, actor.EmployeeID)
	assert.Equal(t, dana.Employee.ID, *actor.EmployeeID)

	me, err := h.auth.CurrentUser(ctx, actor)
	require.NoError(t, err)
	assert.NotNil(t, me.LastLoginAt)

	require.NoError(t, h.auth.Logout(ctx, claims))
	_, _, err = h.auth.Authenticate(ctx, login.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	t.Run("deactivated accounts cannot log in", func(t *testing.T) {
		_, err := h.users.Deactivate(ctx, h.f.Admin.Actor(), dana.User.ID)
		require.NoError(t, err)
		_, err = h.auth.Login(ctx, appidentity.LoginInput{Username: "dana", Password: "correct-horse1"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.f.AddMemberWithPassword(t, "erin", "first-pass1", shared.RoleEmployee)

	err := h.auth.ChangePassword(ctx, m.Actor(), appidentity.ChangePasswordInput{OldPassword: "nope", NewPassword: "second-pass2"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, h.auth.ChangePassword(ctx, m.Actor(), appidentity.ChangePasswordInput{OldPassword: "first-pass1", NewPassword: "second-pass2"}))
	_, err = h.auth.Login(ctx, appidentity.LoginInput{Username: "erin", Password: "second-pass2"})
	assert.NoError(t, err)
}

func TestDepartments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dept, err := h.departments.CreateDepartment(ctx, h.f.Admin.Actor(), appidentity.DepartmentInput{Code: "ops", Name: "Operations"})
	require.NoError(t, err)
	assert.Equal(t, "OPS", dept.Code)

	_, err = h.departments.CreateDepartment(ctx, h.f.Admin.Actor(), appidentity.DepartmentInput{Code: "OPS", Name: "Again"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = h.departments.CreateDepartment(ctx, h.f.Alice.Actor(), appidentity.DepartmentInput{Code: "HR", Name: "People"})
	assert.ErrorIs(t, err, shared.ErrPermission)

	all, err := h.departments.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnsureAdmin(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := appidentity.NewUserService(persistence.NewGormTransactionScope(db).Identity(),
		persistence.NewGormUserRepository(db), persistence.NewGormEmployeeRepository(db), zap.NewNop())
	cfg := config.BootstrapConfig{AdminUsername: "root", AdminEmail: "root@example.com", AdminPassword: "bootstrap-pass1"}

	require.NoError(t, users.EnsureAdmin(context.Background(), cfg))
	require.NoError(t, users.EnsureAdmin(context.Background(), cfg))

	var count int64
	require.NoError(t, db.Model(&models.UserModel{}).Where("role = ?", "admin").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
