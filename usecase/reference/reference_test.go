package reference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository/memory"
)

func TestReferenceData(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	admin := db.AddUser(domain.User{Name: "Admin", Role: domain.RoleAdmin, IsActive: true})
	manager := db.AddUser(domain.User{Name: "Gestor", Role: domain.RoleDepartmentManager, IsActive: true})
	db.AddDepartment(domain.Department{Name: "Antigo", IsActive: false})
	uc := New(db.Store(), nil)

	dept, err := uc.CreateDepartment(ctx, admin.ID, DepartmentInput{Name: " Obras Públicas ", Description: "Vias e calçadas"})
	require.NoError(t, err)
	assert.Equal(t, "Obras Públicas", dept.Name)
	assert.True(t, dept.IsActive)

	_, err = uc.CreateDepartment(ctx, admin.ID, DepartmentInput{Name: "obras públicas"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	_, err = uc.CreateDepartment(ctx, manager.ID, DepartmentInput{Name: "Saúde"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = uc.CreateDepartment(ctx, 999, DepartmentInput{Name: "Saúde"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	active, err := uc.ListDepartments(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, dept.ID, active[0].ID)

	all, err := uc.ListDepartments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	category, err := uc.CreateCategory(ctx, admin.ID, CategoryInput{Name: "Buraco na via", DepartmentID: dept.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategoryColor, category.Color)
	require.NotNil(t, category.Department)
	assert.Equal(t, "Obras Públicas", category.Department.Name)

	_, err = uc.CreateCategory(ctx, admin.ID, CategoryInput{Name: "Iluminação", DepartmentID: 12345})
	assert.ErrorIs(t, err, domain.ErrDepartmentNotFound)

	_, err = uc.CreateCategory(ctx, admin.ID, CategoryInput{DepartmentID: dept.ID})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	categories, err := uc.ListCategories(ctx, true)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Buraco na via", categories[0].Name)
}
