package types

import "time"

// Todo represents a single task owned by a user.
type Todo struct {
	// ID is the unique identifier of the todo.
	ID string `json:"id" db:"id"`

	// UserID references the owning user.
	UserID string `json:"user_id" db:"user_id"`

	// Title is the short summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the optional long-form body.
	Description string `json:"description" db:"description"`

	// Completed marks the task as done.
	Completed bool `json:"completed" db:"completed"`

	// DueDate is the optional deadline for the task.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// CreatedAt is the timestamp when the todo was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
