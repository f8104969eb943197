package reference

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type DepartmentInput struct {
	Name        string
	Description string
}

type CategoryInput struct {
	Name         string
	Description  string
	Icon         string
	Color        string
	DepartmentID int64
}

// UseCase manages departments and categories.
type UseCase struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	logger      *zap.Logger
}

func New(store repository.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:       store.Users(),
		departments: store.Departments(),
		categories:  store.Categories(),
		logger:      logger,
	}
}

func (uc *UseCase) ListDepartments(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	return uc.departments.List(ctx, activeOnly)
}

func (uc *UseCase) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return uc.categories.List(ctx, activeOnly)
}

func (uc *UseCase) CreateDepartment(ctx context.Context, actorID int64, in DepartmentInput) (*domain.Department, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalidf("department name is required")
	}
	department := &domain.Department{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
	}
	if err := uc.departments.Create(ctx, department); err != nil {
		return nil, err
	}
	uc.logger.Info("department created", zap.Int64("department_id", department.ID), zap.String("name", name))
	return department, nil
}

func (uc *UseCase) CreateCategory(ctx context.Context, actorID int64, in CategoryInput) (*domain.Category, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalidf("category name is required")
	}
	department, err := uc.departments.GetByID(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = domain.DefaultCategoryColor
	}
	category := &domain.Category{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Icon:         strings.TrimSpace(in.Icon),
		Color:        color,
		DepartmentID: department.ID,
		Department:   department,
		IsActive:     true,
	}
	if err := uc.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	uc.logger.Info("category created", zap.Int64("category_id", category.ID), zap.Int64("department_id", department.ID))
	return category, nil
}

func (uc *UseCase) authorize(ctx context.Context, actorID int64) error {
	actor, err := uc.users.GetByID(ctx, actorID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}
	return domain.Authorize(actor.Actor(), domain.CapManage).Err()
}
