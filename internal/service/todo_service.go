package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/repository"
	"github.com/Tomlord1122/todolist/internal/validation"
)

// CreateTodoRequest holds the data needed to create a new todo.
// Description and Priority are optional.
type CreateTodoRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority" validate:"omitempty,min=0,max=3"`
	Date        string           `json:"date" validate:"required"`
}

// SetCompletionRequest and SetCancellationRequest use pointers so an
// omitted flag is told apart from false.
type SetCompletionRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type SetCancellationRequest struct {
	Cancelled *bool `json:"cancelled" validate:"required"`
}

// TodoResponse is the full representation returned after a write.
type TodoResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     string          `json:"dueDate"`
	Completed   bool            `json:"completed"`
	Cancelled   bool            `json:"cancelled"`
	OwnerID     string          `json:"ownerId"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// TodoSummary is the list item shape.
type TodoSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     string          `json:"dueDate"`
	Completed   bool            `json:"completed"`
	Cancelled   bool            `json:"cancelled"`
}

// TodoService defines the operations for managing todos. Every operation is
// scoped to callerID, the user resolved from the request's session; an
// empty callerID yields ErrUnauthorized.
type TodoService interface {
	// ListTodos returns the caller's todos ordered by due date. No todos is
	// an empty slice, not an error.
	ListTodos(ctx context.Context, callerID string) ([]TodoSummary, error)

	// CreateTodo stores a new todo owned by the caller. Invalid input is
	// reported as *validation.Error and nothing is stored.
	CreateTodo(ctx context.Context, callerID string, req CreateTodoRequest) (*TodoResponse, error)

	// SetCompletion sets the completed flag. Completing clears cancelled.
	SetCompletion(ctx context.Context, callerID, todoID string, completed bool) (*TodoResponse, error)

	// SetCancellation sets the cancelled flag. Cancelling clears completed.
	SetCancellation(ctx context.Context, callerID, todoID string, cancelled bool) (*TodoResponse, error)

	// DeleteTodo removes one of the caller's todos.
	DeleteTodo(ctx context.Context, callerID, todoID string) error
}

type Option func(*todoService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *todoService) { s.now = now }
}

type todoService struct {
	repo     repository.TodoRepository
	validate *validation.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

func NewTodoService(repo repository.TodoRepository, logger zerolog.Logger, opts ...Option) TodoService {
	s := &todoService{
		repo:     repo,
		validate: validation.New(),
		logger:   logger.With().Str("component", "todo_service").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *todoService) ListTodos(ctx context.Context, callerID string) ([]TodoSummary, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}

	todos, err := s.repo.ListByOwner(ctx, callerID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", callerID).Msg("failed to list todos")
		return nil, ErrInternal
	}

	summaries := make([]TodoSummary, 0, len(todos))
	for i := range todos {
		summaries = append(summaries, toSummary(&todos[i]))
	}
	return summaries, nil
}

func (s *todoService) CreateTodo(ctx context.Context, callerID string, req CreateTodoRequest) (*TodoResponse, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	dueDate, err := parseDueDate(req.Date)
	if err != nil {
		return nil, validation.Field("date", dueDateMessage)
	}

	now := s.now().UTC()
	todo := &domain.Todo{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Priority:  domain.PriorityNone,
		DueDate:   dueDate,
		UserID:    callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		s.logger.Error().Err(err).Str("user_id", callerID).Msg("failed to create todo")
		return nil, ErrInternal
	}

	s.logger.Info().Str("todo_id", todo.ID).Str("user_id", callerID).Msg("created todo")
	return toResponse(todo), nil
}

func (s *todoService) SetCompletion(ctx context.Context, callerID, todoID string, completed bool) (*TodoResponse, error) {
	return s.updateStatus(ctx, callerID, todoID, func(todo *domain.Todo, now time.Time) {
		todo.SetCompleted(completed, now)
	})
}

func (s *todoService) SetCancellation(ctx context.Context, callerID, todoID string, cancelled bool) (*TodoResponse, error) {
	return s.updateStatus(ctx, callerID, todoID, func(todo *domain.Todo, now time.Time) {
		todo.SetCancelled(cancelled, now)
	})
}

// updateStatus loads, checks ownership, applies and saves inside one
// transaction so the row stays locked for the read-modify-write.
func (s *todoService) updateStatus(ctx context.Context, callerID, todoID string, apply func(*domain.Todo, time.Time)) (*TodoResponse, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := uuid.Parse(todoID); err != nil {
		return nil, ErrNotFound
	}

	var updated *domain.Todo
	err := s.repo.WithinTransaction(ctx, func(repo repository.TodoRepository) error {
		todo, err := s.loadOwned(ctx, repo, callerID, todoID)
		if err != nil {
			return err
		}
		apply(todo, s.now().UTC())
		if err := repo.UpdateStatus(ctx, todo); err != nil {
			return err
		}
		updated = todo
		return nil
	})
	if err != nil {
		return nil, s.translate(err, callerID, todoID, "failed to update todo")
	}

	s.logger.Info().
		Str("todo_id", todoID).
		Str("user_id", callerID).
		Bool("completed", updated.Completed).
		Bool("cancelled", updated.Cancelled).
		Msg("updated todo status")
	return toResponse(updated), nil
}

func (s *todoService) DeleteTodo(ctx context.Context, callerID, todoID string) error {
	if callerID == "" {
		return ErrUnauthorized
	}
	if _, err := uuid.Parse(todoID); err != nil {
		return ErrNotFound
	}

	err := s.repo.WithinTransaction(ctx, func(repo repository.TodoRepository) error {
		if _, err := s.loadOwned(ctx, repo, callerID, todoID); err != nil {
			return err
		}
		return repo.Delete(ctx, todoID)
	})
	if err != nil {
		return s.translate(err, callerID, todoID, "failed to delete todo")
	}

	s.logger.Info().Str("todo_id", todoID).Str("user_id", callerID).Msg("deleted todo")
	return nil
}

func (s *todoService) loadOwned(ctx context.Context, repo repository.TodoRepository, callerID, todoID string) (*domain.Todo, error) {
	todo, err := repo.FindByID(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if todo.UserID != callerID {
		s.logger.Warn().
			Str("todo_id", todoID).
			Str("user_id", callerID).
			Msg("caller does not own todo")
		return nil, ErrForbidden
	}
	return todo, nil
}

func (s *todoService) translate(err error, callerID, todoID, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrForbidden):
		return ErrForbidden
	}
	s.logger.Error().Err(err).Str("todo_id", todoID).Str("user_id", callerID).Msg(msg)
	return ErrInternal
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toResponse(todo *domain.Todo) *TodoResponse {
	return &TodoResponse{
		ID:          todo.ID,
		Name:        todo.Name,
		Description: todo.Description,
		Priority:    todo.Priority,
		DueDate:     formatTime(todo.DueDate),
		Completed:   todo.Completed,
		Cancelled:   todo.Cancelled,
		OwnerID:     todo.UserID,
		CreatedAt:   formatTime(todo.CreatedAt),
		UpdatedAt:   formatTime(todo.UpdatedAt),
	}
}

func toSummary(todo *domain.Todo) TodoSummary {
	return TodoSummary{
		ID:          todo.ID,
		Name:        todo.Name,
		Description: todo.Description,
		Priority:    todo.Priority,
		DueDate:     formatTime(todo.DueDate),
		Completed:   todo.Completed,
		Cancelled:   todo.Cancelled,
	}
}
