package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/taskhub/taskhub/internal/models"
)

func decodeTasks(raws [][]byte) ([]*models.Task, error) {
	tasks := make([]*models.Task, 0, len(raws))
	for _, raw := range raws {
		var t models.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

func decodeUsers(raws [][]byte) ([]*models.User, error) {
	users := make([]*models.User, 0, len(raws))
	for _, raw := range raws {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, &u)
	}
	return users, nil
}

func (p *Postgres) CreateTask(ctx context.Context, t *models.Task) error {
	return p.insert(ctx, "tasks", t.ID, t)
}

func (p *Postgres) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := p.get(ctx, "tasks", id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) FindTasks(ctx context.Context, q Query) ([]*models.Task, error) {
	raws, err := p.find(ctx, "tasks", q)
	if err != nil {
		return nil, err
	}
	return decodeTasks(raws)
}

func (p *Postgres) CountTasks(ctx context.Context, where map[string]any) (int64, error) {
	return p.count(ctx, "tasks", where)
}

func (p *Postgres) TasksByID(ctx context.Context, ids []string) ([]*models.Task, error) {
	raws, err := p.byIDs(ctx, "tasks", ids)
	if err != nil {
		return nil, err
	}
	return decodeTasks(raws)
}

func (p *Postgres) SaveTask(ctx context.Context, t *models.Task) error {
	return p.save(ctx, "tasks", t.ID, t)
}

func (p *Postgres) DeleteTask(ctx context.Context, id string) error {
	return p.delete(ctx, "tasks", id)
}

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	return p.insert(ctx, "users", u.ID, u)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := p.get(ctx, "users", id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var raw []byte
	err := p.db.GetContext(ctx, &raw,
		`SELECT doc FROM users WHERE doc->>'email' = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user by email: %w", err)
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) FindUsers(ctx context.Context, q Query) ([]*models.User, error) {
	raws, err := p.find(ctx, "users", q)
	if err != nil {
		return nil, err
	}
	return decodeUsers(raws)
}

func (p *Postgres) CountUsers(ctx context.Context, where map[string]any) (int64, error) {
	return p.count(ctx, "users", where)
}

func (p *Postgres) SaveUser(ctx context.Context, u *models.User) error {
	return p.save(ctx, "users", u.ID, u)
}

func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	return p.delete(ctx, "users", id)
}

var _ Store = (*Postgres)(nil)
