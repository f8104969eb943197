package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestAuthorize(t *testing.T) {
	dept := int64(3)
	provider := Actor{UserID: 7, Role: RoleServiceProvider, DepartmentID: &dept, Active: true}
	manager := Actor{UserID: 8, Role: RoleDepartmentManager, DepartmentID: &dept, Active: true}
	admin := Actor{UserID: 1, Role: RoleAdmin, Active: true}
	citizen := Actor{UserID: 20, Role: RoleCitizen, Active: true}

	t.Run("ProviderCannotValidate", func(t *testing.T) {
		auth := Authorize(provider, CapValidate)
		assert.False(t, auth.Allowed)
		assert.Equal(t, CapValidate, auth.Capability)
		assert.True(t, IsDomainError(auth.Err(), ErrCodeForbidden))
	})

	t.Run("ManagerCanValidateAndExecute", func(t *testing.T) {
		assert.True(t, Authorize(manager, CapValidate, CapExecute).Allowed)
		assert.NoError(t, Authorize(manager, CapValidate).Err())
	})

	t.Run("AdminHoldsStaffCapabilities", func(t *testing.T) {
		for _, c := range []Capability{CapTriage, CapExecute, CapValidate, CapOverride, CapManage} {
			assert.True(t, Authorize(admin, c).Allowed, c)
		}
		assert.False(t, Authorize(admin, CapSupport).Allowed)
	})

	t.Run("CitizenCannotTriage", func(t *testing.T) {
		assert.False(t, Authorize(citizen, CapTriage).Allowed)
		assert.True(t, Authorize(citizen, CapSupport).Allowed)
	})

	t.Run("InactiveAndAnonymousDenied", func(t *testing.T) {
		inactive := citizen
		inactive.Active = false
		assert.False(t, Authorize(inactive, CapReport).Allowed)
		assert.False(t, Authorize(Actor{}, CapReport).Allowed)
	})

	t.Run("DepartmentAffiliation", func(t *testing.T) {
		other := int64(4)
		assert.True(t, manager.InDepartment(&dept))
		assert.False(t, manager.InDepartment(&other))
		assert.False(t, admin.InDepartment(&dept))
		assert.False(t, manager.InDepartment(nil))
	})
}

func TestNotification_AddressedTo(t *testing.T) {
	dept := int64(2)
	managerRole := RoleDepartmentManager
	manager := &User{ID: 5, Role: RoleDepartmentManager, DepartmentID: &dept}
	provider := &User{ID: 6, Role: RoleServiceProvider, DepartmentID: &dept}

	direct := &Notification{UserID: &provider.ID}
	assert.True(t, direct.AddressedTo(provider))
	assert.False(t, direct.AddressedTo(manager))

	byRole := &Notification{Role: &managerRole, DepartmentID: &dept}
	assert.True(t, byRole.AddressedTo(manager))
	assert.False(t, byRole.AddressedTo(provider))
}
