package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/repository"
)

// memoryTodoRepository is an in-memory TodoRepository. Transactions
// snapshot the map and restore it when fn fails.
type memoryTodoRepository struct {
	mu    sync.Mutex
	todos map[string]domain.Todo
	// failNext makes the next call return this error.
	failNext error
}

func newMemoryTodoRepository() *memoryTodoRepository {
	return &memoryTodoRepository{todos: make(map[string]domain.Todo)}
}

func (r *memoryTodoRepository) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *memoryTodoRepository) Create(_ context.Context, todo *domain.Todo) error {
	if err := r.takeFailure(); err != nil {
		return err
	}
	r.todos[todo.ID] = *todo
	return nil
}

func (r *memoryTodoRepository) FindByID(_ context.Context, id string) (*domain.Todo, error) {
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	todo, ok := r.todos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &todo, nil
}

func (r *memoryTodoRepository) ListByOwner(_ context.Context, userID string) ([]domain.Todo, error) {
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]domain.Todo, 0)
	for _, todo := range r.todos {
		if todo.UserID == userID {
			out = append(out, todo)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryTodoRepository) UpdateStatus(_ context.Context, todo *domain.Todo) error {
	if err := r.takeFailure(); err != nil {
		return err
	}
	stored, ok := r.todos[todo.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Completed = todo.Completed
	stored.Cancelled = todo.Cancelled
	stored.UpdatedAt = todo.UpdatedAt
	r.todos[todo.ID] = stored
	return nil
}

func (r *memoryTodoRepository) Delete(_ context.Context, id string) error {
	if err := r.takeFailure(); err != nil {
		return err
	}
	if _, ok := r.todos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

func (r *memoryTodoRepository) WithinTransaction(_ context.Context, fn func(repo repository.TodoRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]domain.Todo, len(r.todos))
	for k, v := range r.todos {
		snapshot[k] = v
	}
	if err := fn(r); err != nil {
		r.todos = snapshot
		return err
	}
	return nil
}

func (r *memoryTodoRepository) get(id string) (domain.Todo, bool) {
	todo, ok := r.todos[id]
	return todo, ok
}

var errStoreDown = errors.New("store down")
