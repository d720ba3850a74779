package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		WHERE id = $1
	`
	var dept model.Department
	if err := r.GetDB().GetContext(ctx, &dept, query, id); err != nil {
		return nil, fmt.Errorf("failed to get department: %w", translateErr(err))
	}
	return &dept, nil
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*model.Department, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		WHERE name = $1
	`
	var dept model.Department
	if err := r.GetDB().GetContext(ctx, &dept, query, name); err != nil {
		return nil, fmt.Errorf("failed to get department by name: %w", translateErr(err))
	}
	return &dept, nil
}

func (r *departmentRepository) FindOrCreate(ctx context.Context, name string) (*model.Department, error) {
	dept, err := r.GetByName(ctx, name)
	if err == nil {
		return dept, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	dept = &model.Department{Name: name}
	dept.ID = uuid.New()
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = dept.CreatedAt

	query := `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET updated_at = departments.updated_at
		RETURNING id, name, description, created_at, updated_at
	`
	if err := r.GetDB().GetContext(ctx, dept, query,
		dept.ID, dept.Name, dept.Description, dept.CreatedAt, dept.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", translateErr(err))
	}
	return dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		ORDER BY name ASC
	`
	var depts []*model.Department
	if err := r.GetDB().SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}
