package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todolist/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// TodoRepository defines the interface for todo data operations
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	// FindByID loads a todo and locks its row until the surrounding
	// transaction ends.
	FindByID(ctx context.Context, id string) (*domain.Todo, error)
	// ListByOwner returns the owner's todos ordered by due date.
	ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error)
	// UpdateStatus persists the completion/cancellation flags and UpdatedAt.
	UpdateStatus(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, id string) error
	// WithinTransaction runs fn against a repository bound to one
	// transaction, committing if fn returns nil.
	WithinTransaction(ctx context.Context, fn func(repo TodoRepository) error) error
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

func (r *gormTodoRepository) FindByID(ctx context.Context, id string) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&todo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &todo, nil
}

func (r *gormTodoRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error) {
	todos := make([]domain.Todo, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_date ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *gormTodoRepository) UpdateStatus(ctx context.Context, todo *domain.Todo) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Where("id = ?", todo.ID).
		UpdateColumns(map[string]interface{}{
			"completed":  todo.Completed,
			"cancelled":  todo.Cancelled,
			"updated_at": todo.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Todo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTodoRepository) WithinTransaction(ctx context.Context, fn func(repo TodoRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTodoRepository{db: tx})
	})
}
