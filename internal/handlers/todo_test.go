package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/termitary/apiserver/internal/hasher"
	"github.com/termitary/apiserver/internal/services"
	"github.com/termitary/apiserver/internal/store"
	"github.com/termitary/apiserver/types"
)

type memTodoRepo struct {
	mu    sync.Mutex
	todos map[string]types.Todo
}

func (r *memTodoRepo) ListByUser(_ context.Context, userID string) ([]types.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todos := []types.Todo{}
	for _, todo := range r.todos {
		if todo.UserID == userID {
			todos = append(todos, todo)
		}
	}
	return todos, nil
}

func (r *memTodoRepo) Get(_ context.Context, id string) (types.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok {
		return types.Todo{}, store.ErrNotFound
	}
	return todo, nil
}

func (r *memTodoRepo) Create(_ context.Context, todo types.Todo) (types.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos[todo.ID] = todo
	return todo, nil
}

func (r *memTodoRepo) Update(_ context.Context, todo types.Todo) (types.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[todo.ID]; !ok {
		return types.Todo{}, store.ErrNotFound
	}
	r.todos[todo.ID] = todo
	return todo, nil
}

func (r *memTodoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

func newTodoTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	h, err := hasher.New(hasher.AlgorithmArgon2id)
	require.NoError(t, err)

	userRepo := &memUserRepo{users: make(map[string]types.User)}
	sessionRepo := &memSessionRepo{sessions: make(map[string]types.Session)}
	todoRepo := &memTodoRepo{todos: make(map[string]types.Todo)}

	sessionService := services.NewSessionService(sessionRepo, h)
	authService := services.NewAuthService(userRepo, sessionService, h, nil)
	userService := services.NewUserService(userRepo)
	todoService := services.NewTodoService(todoRepo, nil)

	router := chi.NewRouter()
	router.Route("/api/v1/auth", func(r chi.Router) {
		AuthRouter(r, authService, sessionService, userService)
	})
	router.Route("/api/v1/todos", func(r chi.Router) {
		TodoRouter(r, todoService, RequireAuth(sessionService))
	})
	return router
}

func TestTodoLifecycle(t *testing.T) {
	router := newTodoTestRouter(t)
	auth := register(t, router, "a@x.com", "alice", "secretpw1")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/todos/", auth.Token, TodoRequest{
		Title:       "feed the colony",
		Description: "before noon",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var created types.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, auth.User.ID, created.UserID)
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/todos/", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []types.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/todos/"+created.ID, auth.Token, TodoRequest{
		Title:     "feed the colony",
		Completed: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/todos/"+created.ID, auth.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/todos/"+created.ID, auth.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodosAreUserScoped(t *testing.T) {
	router := newTodoTestRouter(t)
	alice := register(t, router, "a@x.com", "alice", "secretpw1")
	bob := register(t, router, "b@x.com", "bob", "secretpw2")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/todos/", alice.Token, TodoRequest{Title: "private task"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created types.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodGet, "/api/v1/todos/"+created.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "another user's todo must behave as missing")

	rec = doJSON(t, router, http.MethodGet, "/api/v1/todos/", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []types.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestTodosRequireAuth(t *testing.T) {
	router := newTodoTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/todos/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
