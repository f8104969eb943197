package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository/memory"
)

type fixture struct {
	uc      *UseCase
	db      *memory.DB
	admin   domain.User
	citizen domain.User
	dept    domain.Department
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := memory.New()
	dept := db.AddDepartment(domain.Department{Name: "Obras Públicas", IsActive: true})
	admin := db.AddUser(domain.User{Name: "Admin", Email: "admin@prefeitura.gov.br", Role: domain.RoleAdmin, IsActive: true})
	citizen := db.AddUser(domain.User{Name: "Ana", Email: "ana@example.com", Role: domain.RoleCitizen, IsActive: true})
	return fixture{
		uc:      New(db.Store(), nil, WithHashCost(bcrypt.MinCost)),
		db:      db,
		admin:   admin,
		citizen: citizen,
		dept:    dept,
	}
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	updated, err := f.uc.UpdateProfile(ctx, f.citizen.ID, ProfileUpdate{
		Name:    strPtr(" Ana Souza "),
		Address: strPtr("Rua A, 10, Centro, Cidade-UF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", updated.Name)
	assert.Equal(t, "Rua A, 10, Centro, Cidade-UF", updated.Address)
	assert.Equal(t, "ana@example.com", updated.Email)

	_, err = f.uc.UpdateProfile(ctx, f.citizen.ID, ProfileUpdate{Name: strPtr("  ")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = f.uc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateStaff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	provider, err := f.uc.CreateStaff(ctx, f.admin.ID, StaffInput{
		Name:         "Carlos",
		Email:        "Carlos@Prefeitura.gov.br",
		Password:     "prestador1",
		Role:         domain.RoleServiceProvider,
		DepartmentID: &f.dept.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "carlos@prefeitura.gov.br", provider.Email)
	assert.True(t, provider.InDepartment(&f.dept.ID))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(provider.PasswordHash), []byte("prestador1")))

	missing := int64(404)
	cases := []struct {
		name  string
		actor int64
		in    StaffInput
		code  domain.ErrorCode
	}{
		{"citizen role", f.admin.ID, StaffInput{Name: "X", Email: "x@a.com", Password: "123456", Role: domain.RoleCitizen}, domain.ErrCodeInvalid},
		{"manager without department", f.admin.ID, StaffInput{Name: "X", Email: "x@a.com", Password: "123456", Role: domain.RoleDepartmentManager}, domain.ErrCodeInvalid},
		{"unknown department", f.admin.ID, StaffInput{Name: "X", Email: "x@a.com", Password: "123456", Role: domain.RoleServiceProvider, DepartmentID: &missing}, domain.ErrCodeNotFound},
		{"duplicate email", f.admin.ID, StaffInput{Name: "X", Email: "carlos@prefeitura.gov.br", Password: "123456", Role: domain.RoleAdmin}, domain.ErrCodeConflict},
		{"not an admin", f.citizen.ID, StaffInput{Name: "X", Email: "x@a.com", Password: "123456", Role: domain.RoleAdmin}, domain.ErrCodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateStaff(ctx, tc.actor, tc.in)
			assert.True(t, domain.IsDomainError(err, tc.code), "got %v", err)
		})
	}
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.db.AddUser(domain.User{Name: "Cidadão", Email: "c" + string(rune('a'+i)) + "@example.com", Role: domain.RoleCitizen, IsActive: true})
	}

	page, err := f.uc.ListUsers(ctx, f.admin.ID, UserQuery{Role: domain.RoleCitizen, Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Items, 1)

	staff, err := f.uc.ListStaff(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Len(t, staff, 1)

	_, err = f.uc.ListUsers(ctx, f.citizen.ID, UserQuery{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestUpdateAndDeactivateUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	role := domain.RoleDepartmentManager
	updated, err := f.uc.UpdateUser(ctx, f.admin.ID, f.citizen.ID, UserUpdate{Role: &role, DepartmentID: &f.dept.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDepartmentManager, updated.Role)

	var none int64
	_, err = f.uc.UpdateUser(ctx, f.admin.ID, f.citizen.ID, UserUpdate{DepartmentID: &none})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	bogus := domain.Role("mayor")
	_, err = f.uc.UpdateUser(ctx, f.admin.ID, f.citizen.ID, UserUpdate{Role: &bogus})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	require.NoError(t, f.uc.DeactivateUser(ctx, f.admin.ID, f.citizen.ID))
	got, err := f.uc.GetUser(ctx, f.admin.ID, f.citizen.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = f.uc.DeactivateUser(ctx, f.admin.ID, f.admin.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	err = f.uc.DeactivateUser(ctx, f.admin.ID, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
