// Package store is the record-store adapter: a thin document-store
// interface over the persistence engine. Every call is independently
// durable once it returns; saves replace the whole document for a single
// record (all-or-nothing, last-write-wins) and no multi-document
// transaction is offered.
package store

import (
	"context"
	"errors"

	"github.com/taskhub/taskhub/internal/models"
)

// ErrNotFound is returned by fetch-by-id, save and delete when the record
// does not exist.
var ErrNotFound = errors.New("record not found")

// SortField orders results by one document field. The field "_id" targets
// the record identifier.
type SortField struct {
	Field string
	Desc  bool
}

// Query filters a collection scan. Where matches document fields by
// equality ("_id" targets the identifier); Skip and Limit page the result,
// with Limit <= 0 meaning no limit.
type Query struct {
	Where map[string]any
	Sort  []SortField
	Skip  int
	Limit int
}

// Store is the persistence boundary used by the service layer.
type Store interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	FindTasks(ctx context.Context, q Query) ([]*models.Task, error)
	CountTasks(ctx context.Context, where map[string]any) (int64, error)
	// TasksByID fetches the tasks whose ids are in ids; missing ids are
	// simply absent from the result.
	TasksByID(ctx context.Context, ids []string) ([]*models.Task, error)
	SaveTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context, q Query) ([]*models.User, error)
	CountUsers(ctx context.Context, where map[string]any) (int64, error)
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error

	Close() error
}
