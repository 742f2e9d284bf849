package testutil

import (
	"testing"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixtureHash is a bcrypt-shaped placeholder; members seeded with it cannot log in
const fixtureHash = "$2a$04$0k7pAKvUG1TKbNn2Rp7Kde4JqY3lS3cKbgE6BvP2EKC0vL9B8oR9u"

// Member is a seeded user together with the employee record linked to it
type Member struct {
	User     *identity.User
	Employee *identity.Employee
}

// Actor returns the identity the member acts as
func (m Member) Actor() shared.Actor {
	return shared.Actor{
		UserID:       m.User.ID,
		Role:         m.User.Role,
		EmployeeID:   &m.Employee.ID,
		DepartmentID: &m.Employee.DepartmentID,
	}
}

// Fixture seeds a sqlite database with one department, an admin, a monitor
// and two employees.
type Fixture struct {
	DB         *gorm.DB
	Department *identity.Department
	Admin      Member
	Monitor    Member
	Alice      Member
	Bob        Member
}

// NewFixture opens a fresh database and seeds the standard cast
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	return SeedFixture(t, NewSQLiteDB(t))
}

// SeedFixture seeds the standard cast into an already migrated database
func SeedFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	dept, err := identity.NewDepartment("ENG", "Engineering", "")
	require.NoError(t, err)
	require.NoError(t, db.Create(models.DepartmentModelFromDomain(dept)).Error)

	f := &Fixture{DB: db, Department: dept}
	f.Admin = f.AddMember(t, "admin", shared.RoleAdmin)
	f.Monitor = f.AddMember(t, "monitor", shared.RoleMonitor)
	f.Alice = f.AddMember(t, "alice", shared.RoleEmployee)
	f.Bob = f.AddMember(t, "bob", shared.RoleEmployee)
	return f
}

// AddMember seeds an active user with an employee record in the fixture department
func (f *Fixture) AddMember(t *testing.T, username string, role shared.Role) Member {
	t.Helper()

	u, err := identity.NewUserWithHash(username, username+"@example.com", fixtureHash, role)
	require.NoError(t, err)
	return f.addMember(t, u)
}

// AddMemberWithPassword seeds a member whose password hash matches password
func (f *Fixture) AddMemberWithPassword(t *testing.T, username, password string, role shared.Role) Member {
	t.Helper()

	u, err := identity.NewUser(username, username+"@example.com", password, role)
	require.NoError(t, err)
	return f.addMember(t, u)
}

func (f *Fixture) addMember(t *testing.T, u *identity.User) Member {
	t.Helper()

	require.NoError(t, f.DB.Create(models.UserModelFromDomain(u)).Error)

	e, err := identity.NewEmployee(u.ID, u.Username+" Tester", "", f.Department.ID)
	require.NoError(t, err)
	require.NoError(t, f.DB.Create(models.EmployeeModelFromDomain(e)).Error)

	return Member{User: u, Employee: e}
}

// AddProduct seeds an active product with the given on-hand quantity
func (f *Fixture) AddProduct(t *testing.T, name string, quantity int) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(catalog.ProductDetails{
		Name:     name,
		Category: "Laptops",
		UnitCost: decimal.NewFromInt(1200),
	}, quantity, f.Admin.User.ID)
	require.NoError(t, err)
	p.ClearDomainEvents()
	require.NoError(t, f.DB.Create(models.ProductModelFromDomain(p)).Error)
	return p
}

// AddAssignment seeds an outstanding assignment and takes its units off the shelf
func (f *Fixture) AddAssignment(t *testing.T, product *catalog.Product, holder Member, quantity int) *workflow.Assignment {
	t.Helper()

	a, err := workflow.NewAssignment(product.ID, holder.Employee.ID, f.Monitor.Actor(), nil, quantity, nil, time.Now())
	require.NoError(t, err)
	a.ClearDomainEvents()
	require.NoError(t, f.DB.Create(models.ProductAssignmentModelFromDomain(a)).Error)
	require.NoError(t, f.DB.Model(&models.ProductModel{}).Where("id = ?", product.ID).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity)).Error)
	return a
}

// AddRequest seeds a pending request filed by the holder for their own employee record
func (f *Fixture) AddRequest(t *testing.T, product *catalog.Product, holder Member, quantity int) *workflow.ProductRequest {
	t.Helper()

	r, err := workflow.NewProductRequest(holder.Employee.ID, holder.User.ID, product.ID, quantity, "seeded", nil, time.Now())
	require.NoError(t, err)
	r.ClearDomainEvents()
	require.NoError(t, f.DB.Create(models.ProductRequestModelFromDomain(r)).Error)
	return r
}

// Deactivate flips a member's account to inactive without going through the service
func (f *Fixture) Deactivate(t *testing.T, m Member) {
	t.Helper()

	require.NoError(t, f.DB.Model(&models.UserModel{}).Where("id = ?", m.User.ID).Update("active", false).Error)
}

// Quantity reads the stored on-hand quantity of a product
func (f *Fixture) Quantity(t *testing.T, productID uuid.UUID) int {
	t.Helper()

	var m models.ProductModel
	require.NoError(t, f.DB.First(&m, "id = ?", productID).Error)
	return m.Quantity
}

// Count returns the number of rows in a model's table
func (f *Fixture) Count(t *testing.T, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.DB.Model(model).Count(&n).Error)
	return n
}
