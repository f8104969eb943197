package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
	"github.com/fastygo/portal-cidadao/usecase/auth"
)

// ProfileUpdate carries the fields a user may change on their own account.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

// UserUpdate is an administrative edit of any account.
type UserUpdate struct {
	Name         *string
	Email        *string
	Phone        *string
	Role         *domain.Role
	DepartmentID *int64
	IsActive     *bool
}

// StaffInput creates a municipal staff account.
type StaffInput struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	Role         domain.Role
	DepartmentID *int64
}

type UserQuery struct {
	Role         domain.Role
	DepartmentID int64
	Page         int
	PerPage      int
}

type UserPage struct {
	Items   []domain.User `json:"users"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

type UseCase struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	hashCost    int
	logger      *zap.Logger
}

type Option func(*UseCase)

func WithHashCost(cost int) Option {
	return func(uc *UseCase) { uc.hashCost = cost }
}

func New(store repository.Store, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:       store.Users(),
		departments: store.Departments(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalidf("name cannot be empty")
		}
		user.Name = name
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers pages through accounts ordered by id.
func (uc *UseCase) ListUsers(ctx context.Context, actorID int64, q UserQuery) (*UserPage, error) {
	if _, err := uc.admin(ctx, actorID); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 100 {
		q.PerPage = 20
	}
	filter := repository.UserFilter{DepartmentID: q.DepartmentID}
	if q.Role != "" {
		filter.Roles = []domain.Role{q.Role}
	}
	total, err := uc.users.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	filter.Limit = q.PerPage
	filter.Offset = (q.Page - 1) * q.PerPage
	items, err := uc.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: items, Total: total, Page: q.Page, PerPage: q.PerPage}, nil
}

// ListStaff returns every staff account.
func (uc *UseCase) ListStaff(ctx context.Context, actorID int64) ([]domain.User, error) {
	if _, err := uc.admin(ctx, actorID); err != nil {
		return nil, err
	}
	return uc.users.List(ctx, repository.UserFilter{
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleDepartmentManager, domain.RoleServiceProvider},
	})
}

func (uc *UseCase) GetUser(ctx context.Context, actorID, userID int64) (*domain.User, error) {
	if _, err := uc.admin(ctx, actorID); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateUser(ctx context.Context, actorID, userID int64, in UserUpdate) (*domain.User, error) {
	admin, err := uc.admin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalidf("name cannot be empty")
		}
		user.Name = name
	}
	if in.Email != nil {
		email, err := auth.NormalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		if _, err := domain.ParseRole(string(*in.Role)); err != nil {
			return nil, err
		}
		if user.ID == admin.ID && *in.Role != domain.RoleAdmin {
			return nil, domain.Invalidf("admins cannot demote themselves")
		}
		user.Role = *in.Role
	}
	if in.DepartmentID != nil {
		if *in.DepartmentID == 0 {
			user.DepartmentID = nil
		} else {
			id := *in.DepartmentID
			user.DepartmentID = &id
		}
	}
	if in.IsActive != nil {
		if user.ID == admin.ID && !*in.IsActive {
			return nil, domain.Invalidf("admins cannot deactivate themselves")
		}
		user.IsActive = *in.IsActive
	}
	if err := uc.checkDepartment(ctx, user.Role, user.DepartmentID); err != nil {
		return nil, err
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user updated", zap.Int64("user_id", user.ID), zap.Int64("admin_id", admin.ID))
	return user, nil
}

// DeactivateUser soft-deletes an account.
func (uc *UseCase) DeactivateUser(ctx context.Context, actorID, userID int64) error {
	admin, err := uc.admin(ctx, actorID)
	if err != nil {
		return err
	}
	if admin.ID == userID {
		return domain.Invalidf("admins cannot deactivate themselves")
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := uc.users.Update(ctx, user); err != nil {
		return err
	}
	uc.logger.Info("user deactivated", zap.Int64("user_id", user.ID), zap.Int64("admin_id", admin.ID))
	return nil
}

func (uc *UseCase) CreateStaff(ctx context.Context, actorID int64, in StaffInput) (*domain.User, error) {
	if _, err := uc.admin(ctx, actorID); err != nil {
		return nil, err
	}
	if !in.Role.IsStaff() {
		return nil, domain.Invalidf("user type %q is not a staff role", in.Role)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalidf("name is required")
	}
	email, err := auth.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := uc.checkDepartment(ctx, in.Role, in.DepartmentID); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, uc.hashCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         in.Role,
		DepartmentID: in.DepartmentID,
		IsActive:     true,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("staff user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (uc *UseCase) checkDepartment(ctx context.Context, role domain.Role, departmentID *int64) error {
	if departmentID == nil {
		if role == domain.RoleDepartmentManager || role == domain.RoleServiceProvider {
			return domain.Invalidf("department is required for %s", role)
		}
		return nil
	}
	_, err := uc.departments.GetByID(ctx, *departmentID)
	return err
}

func (uc *UseCase) admin(ctx context.Context, actorID int64) (*domain.User, error) {
	actor, err := uc.users.GetByID(ctx, actorID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := domain.Authorize(actor.Actor(), domain.CapManage).Err(); err != nil {
		return nil, err
	}
	return actor, nil
}
