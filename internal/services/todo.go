package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/termitary/apiserver/internal/store"
	"github.com/termitary/apiserver/internal/token"
	"github.com/termitary/apiserver/types"
)

// TodoCreatedChannel is the notification channel for new todos.
const TodoCreatedChannel = "todos.created"

// ErrTitleRequired is returned when a todo is created or updated with an
// empty title.
var ErrTitleRequired = errors.New("title is required")

// TodoRepository defines persistence operations for todos.
type TodoRepository interface {
	ListByUser(ctx context.Context, userID string) ([]types.Todo, error)
	Get(ctx context.Context, id string) (types.Todo, error)
	Create(ctx context.Context, todo types.Todo) (types.Todo, error)
	Update(ctx context.Context, todo types.Todo) (types.Todo, error)
	Delete(ctx context.Context, id string) error
}

// TodoService encapsulates todo use-cases. Every operation is scoped to the
// calling user; todos belonging to someone else behave as if they do not
// exist.
type TodoService struct {
	repo   TodoRepository
	events EventPublisher
}

func NewTodoService(repo TodoRepository, events EventPublisher) *TodoService {
	return &TodoService{repo: repo, events: events}
}

func (s *TodoService) List(ctx context.Context, userID string) ([]types.Todo, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *TodoService) Get(ctx context.Context, userID, id string) (types.Todo, error) {
	todo, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Todo{}, err
	}
	if todo.UserID != userID {
		return types.Todo{}, store.ErrNotFound
	}
	return todo, nil
}

func (s *TodoService) Create(ctx context.Context, userID string, todo types.Todo) (types.Todo, error) {
	if strings.TrimSpace(todo.Title) == "" {
		return types.Todo{}, ErrTitleRequired
	}

	id, err := token.Generate()
	if err != nil {
		return types.Todo{}, err
	}
	todo.ID = id
	todo.UserID = userID

	created, err := s.repo.Create(ctx, todo)
	if err != nil {
		return types.Todo{}, err
	}

	if s.events != nil {
		payload, err := json.Marshal(created)
		if err != nil {
			log.Printf("todos: marshal %s event: %v", TodoCreatedChannel, err)
		} else if _, err := s.events.Publish(ctx, TodoCreatedChannel, payload, nil); err != nil {
			log.Printf("todos: publish %s event: %v", TodoCreatedChannel, err)
		}
	}
	return created, nil
}

func (s *TodoService) Update(ctx context.Context, userID string, todo types.Todo) (types.Todo, error) {
	if strings.TrimSpace(todo.Title) == "" {
		return types.Todo{}, ErrTitleRequired
	}

	existing, err := s.Get(ctx, userID, todo.ID)
	if err != nil {
		return types.Todo{}, err
	}
	todo.UserID = existing.UserID
	todo.CreatedAt = existing.CreatedAt

	return s.repo.Update(ctx, todo)
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
