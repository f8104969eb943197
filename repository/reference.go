package repository

import (
	"context"

	"github.com/fastygo/portal-cidadao/domain"
)

type DepartmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Department, error)
	Create(ctx context.Context, department *domain.Department) error
}

type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
}
