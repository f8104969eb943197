package postgres

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

var userColumns = []string{
	"id", "name", "email", "phone", "password_hash", "user_type", "department_id", "address", "is_active", "created_at",
}

type userRepository struct {
	q Querier
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(q Querier) repository.UserRepository {
	return &userRepository{q: q}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	qb := builder().Select(userColumns...).From("users").Where(squirrel.Eq{"id": id})
	user, err := scanUser(queryRow(ctx, r.q, qb))
	if err != nil {
		return nil, wrapErr("users: get", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	qb := builder().Select(userColumns...).From("users").
		Where(squirrel.Eq{"LOWER(email)": strings.ToLower(strings.TrimSpace(email))})
	user, err := scanUser(queryRow(ctx, r.q, qb))
	if err != nil {
		return nil, wrapErr("users: get by email", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	qb := applyUserFilter(builder().Select(userColumns...).From("users"), filter).
		OrderBy("id ASC").
		Limit(uint64(clampLimit(filter.Limit)))
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("users: list", err, nil)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr("users: scan", err, nil)
		}
		users = append(users, *user)
	}
	return users, wrapErr("users: rows", rows.Err(), nil)
}

func (r *userRepository) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	qb := applyUserFilter(builder().Select("COUNT(*)").From("users"), filter)
	var total int
	if err := queryRow(ctx, r.q, qb).Scan(&total); err != nil {
		return 0, wrapErr("users: count", err, nil)
	}
	return total, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert("users").
		SetMap(userValues(user)).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.q, qb).Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return wrapErr("users: create", err, nil)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Update("users").
		SetMap(userValues(user)).
		Where(squirrel.Eq{"id": user.ID})
	tag, err := exec(ctx, r.q, qb)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return wrapErr("users: update", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func applyUserFilter(qb squirrel.SelectBuilder, f repository.UserFilter) squirrel.SelectBuilder {
	if len(f.Roles) > 0 {
		roles := make([]string, 0, len(f.Roles))
		for _, role := range f.Roles {
			roles = append(roles, string(role))
		}
		qb = qb.Where(squirrel.Eq{"user_type": roles})
	}
	if f.DepartmentID != 0 {
		qb = qb.Where(squirrel.Eq{"department_id": f.DepartmentID})
	}
	if f.ActiveOnly {
		qb = qb.Where(squirrel.Eq{"is_active": true})
	}
	return qb
}

func userValues(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"name":          u.Name,
		"email":         strings.ToLower(strings.TrimSpace(u.Email)),
		"phone":         u.Phone,
		"password_hash": u.PasswordHash,
		"user_type":     string(u.Role),
		"department_id": u.DepartmentID,
		"address":       u.Address,
		"is_active":     u.IsActive,
	}
}

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.DepartmentID, &u.Address, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
