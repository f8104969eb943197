package domain

// Capability names an action class gated by role.
type Capability string

const (
	CapReport   Capability = "report"
	CapSupport  Capability = "support"
	CapTriage   Capability = "triage"
	CapExecute  Capability = "execute"
	CapValidate Capability = "validate"
	CapOverride Capability = "override"
	CapManage   Capability = "manage"
)

var roleCapabilities = map[Role][]Capability{
	RoleCitizen:           {CapReport, CapSupport},
	RoleServiceProvider:   {CapReport, CapExecute},
	RoleDepartmentManager: {CapReport, CapExecute, CapValidate},
	RoleAdmin:             {CapReport, CapTriage, CapExecute, CapValidate, CapOverride, CapManage},
}

// Actor is the caller identity a lifecycle operation runs on behalf of.
type Actor struct {
	UserID       int64
	Role         Role
	DepartmentID *int64
	Active       bool
}

// Authorization is the outcome of a capability check.
type Authorization struct {
	Allowed    bool
	Capability Capability
	Reason     string
}

// Err converts a denied authorization into a forbidden domain error.
func (a Authorization) Err() error {
	if a.Allowed {
		return nil
	}
	return Forbiddenf("%s", a.Reason)
}

// Authorize checks whether the actor holds every capability in required.
func Authorize(actor Actor, required ...Capability) Authorization {
	if actor.UserID == 0 {
		return Authorization{Reason: "unauthenticated caller"}
	}
	if !actor.Active {
		return Authorization{Reason: "user account is inactive"}
	}
	for _, c := range required {
		if !actor.Has(c) {
			return Authorization{Capability: c, Reason: "role " + string(actor.Role) + " lacks capability " + string(c)}
		}
	}
	auth := Authorization{Allowed: true}
	if len(required) > 0 {
		auth.Capability = required[0]
	}
	return auth
}

// Has reports whether the actor's role grants the capability.
func (a Actor) Has(capability Capability) bool {
	for _, c := range roleCapabilities[a.Role] {
		if c == capability {
			return true
		}
	}
	return false
}

// InDepartment reports whether the actor belongs to the given department.
func (a Actor) InDepartment(departmentID *int64) bool {
	return sameID(a.DepartmentID, departmentID)
}
