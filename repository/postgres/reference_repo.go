package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/fastygo/portal-cidadao/domain"
)

type departmentRepository struct {
	q Querier
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	qb := builder().Select("id", "name", "description", "is_active", "created_at").
		From("departments").
		Where(squirrel.Eq{"id": id})
	var d domain.Department
	if err := queryRow(ctx, r.q, qb).Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt); err != nil {
		return nil, wrapErr("departments: get", err, domain.ErrDepartmentNotFound)
	}
	return &d, nil
}

func (r *departmentRepository) List(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	qb := builder().Select("id", "name", "description", "is_active", "created_at").
		From("departments").
		OrderBy("name ASC")
	if activeOnly {
		qb = qb.Where(squirrel.Eq{"is_active": true})
	}

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("departments: list", err, nil)
	}
	defer rows.Close()

	departments := []domain.Department{}
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, wrapErr("departments: scan", err, nil)
		}
		departments = append(departments, d)
	}
	return departments, wrapErr("departments: rows", rows.Err(), nil)
}

func (r *departmentRepository) Create(ctx context.Context, d *domain.Department) error {
	if d == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert("departments").
		Columns("name", "description", "is_active").
		Values(d.Name, d.Description, d.IsActive).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.q, qb).Scan(&d.ID, &d.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("department %q already exists", d.Name)
		}
		return wrapErr("departments: create", err, nil)
	}
	return nil
}

var categorySelect = []string{
	"c.id", "c.name", "c.description", "c.icon", "c.color", "c.department_id", "c.is_active", "c.created_at",
	"d.id", "d.name", "d.description", "d.is_active", "d.created_at",
}

type categoryRepository struct {
	q Querier
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	qb := builder().Select(categorySelect...).
		From("categories c").
		Join("departments d ON d.id = c.department_id").
		Where(squirrel.Eq{"c.id": id})
	c, err := scanCategory(queryRow(ctx, r.q, qb))
	if err != nil {
		return nil, wrapErr("categories: get", err, domain.ErrCategoryNotFound)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	qb := builder().Select(categorySelect...).
		From("categories c").
		Join("departments d ON d.id = c.department_id").
		OrderBy("c.name ASC")
	if activeOnly {
		qb = qb.Where(squirrel.Eq{"c.is_active": true})
	}

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("categories: list", err, nil)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, wrapErr("categories: scan", err, nil)
		}
		categories = append(categories, *c)
	}
	return categories, wrapErr("categories: rows", rows.Err(), nil)
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	if c == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert("categories").
		Columns("name", "description", "icon", "color", "department_id", "is_active").
		Values(c.Name, c.Description, c.Icon, c.Color, c.DepartmentID, c.IsActive).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.q, qb).Scan(&c.ID, &c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("category %q already exists", c.Name)
		}
		return wrapErr("categories: create", err, nil)
	}
	return nil
}

func scanCategory(row scanner) (*domain.Category, error) {
	var (
		c domain.Category
		d domain.Department
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.DepartmentID, &c.IsActive, &c.CreatedAt,
		&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt); err != nil {
		return nil, err
	}
	c.Department = &d
	return &c, nil
}
