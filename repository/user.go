package repository

import (
	"context"

	"github.com/fastygo/portal-cidadao/domain"
)

type UserFilter struct {
	Roles        []domain.Role
	DepartmentID int64
	ActiveOnly   bool
	Limit        int
	Offset       int
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Count(ctx context.Context, filter UserFilter) (int, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}
