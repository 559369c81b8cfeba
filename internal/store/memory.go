package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/taskhub/taskhub/internal/models"
)

// Memory is an in-process Store with the same observable semantics as the
// Postgres implementation: whole-document saves, last write wins, no
// cross-record transactions. It backs the memory driver for local runs
// and the service-layer tests.
type Memory struct {
	mu        sync.RWMutex
	tasks     map[string]*models.Task
	users     map[string]*models.User
	taskOrder []string
	userOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		tasks: make(map[string]*models.Task),
		users: make(map[string]*models.User),
	}
}

func (m *Memory) Close() error { return nil }

func copyTask(t *models.Task) *models.Task {
	c := *t
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.PendingTasks = append([]string(nil), u.PendingTasks...)
	return &c
}

// asDocument renders a record as the JSON object the filter language
// operates on.
func asDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalize round-trips a filter value through JSON so that it compares
// cleanly against document values (ints become float64 and so on).
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func matches(doc map[string]any, where map[string]any) bool {
	for k, v := range where {
		got, ok := doc[k]
		if !ok {
			return false
		}
		want := normalize(v)
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func lessValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func sortDocs(docs []map[string]any, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			a, b := docs[i][f.Field], docs[j][f.Field]
			if fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b) {
				continue
			}
			if f.Desc {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		}
		return false
	})
}

func page(n int, q Query) (lo, hi int) {
	lo = q.Skip
	if lo > n {
		lo = n
	}
	hi = n
	if q.Limit > 0 && lo+q.Limit < hi {
		hi = lo + q.Limit
	}
	return lo, hi
}

func (m *Memory) CreateTask(ctx context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return fmt.Errorf("duplicate task id %s", t.ID)
	}
	m.tasks[t.ID] = copyTask(t)
	m.taskOrder = append(m.taskOrder, t.ID)
	return nil
}

func (m *Memory) GetTask(ctx context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTask(t), nil
}

func (m *Memory) FindTasks(ctx context.Context, q Query) ([]*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []map[string]any
	for _, id := range m.taskOrder {
		t, ok := m.tasks[id]
		if !ok {
			continue
		}
		doc, err := asDocument(t)
		if err != nil {
			return nil, err
		}
		if matches(doc, q.Where) {
			docs = append(docs, doc)
		}
	}
	sortDocs(docs, q.Sort)
	lo, hi := page(len(docs), q)

	out := make([]*models.Task, 0, hi-lo)
	for _, doc := range docs[lo:hi] {
		out = append(out, copyTask(m.tasks[doc["_id"].(string)]))
	}
	return out, nil
}

func (m *Memory) CountTasks(ctx context.Context, where map[string]any) (int64, error) {
	tasks, err := m.FindTasks(ctx, Query{Where: where})
	if err != nil {
		return 0, err
	}
	return int64(len(tasks)), nil
}

func (m *Memory) TasksByID(ctx context.Context, ids []string) ([]*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Task
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			out = append(out, copyTask(t))
		}
	}
	return out, nil
}

func (m *Memory) SaveTask(ctx context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	m.tasks[t.ID] = copyTask(t)
	return nil
}

func (m *Memory) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("duplicate user id %s", u.ID)
	}
	m.users[u.ID] = copyUser(u)
	m.userOrder = append(m.userOrder, u.ID)
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok && u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUsers(ctx context.Context, q Query) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []map[string]any
	for _, id := range m.userOrder {
		u, ok := m.users[id]
		if !ok {
			continue
		}
		doc, err := asDocument(u)
		if err != nil {
			return nil, err
		}
		if matches(doc, q.Where) {
			docs = append(docs, doc)
		}
	}
	sortDocs(docs, q.Sort)
	lo, hi := page(len(docs), q)

	out := make([]*models.User, 0, hi-lo)
	for _, doc := range docs[lo:hi] {
		out = append(out, copyUser(m.users[doc["_id"].(string)]))
	}
	return out, nil
}

func (m *Memory) CountUsers(ctx context.Context, where map[string]any) (int64, error) {
	users, err := m.FindUsers(ctx, Query{Where: where})
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (m *Memory) SaveUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = copyUser(u)
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

var _ Store = (*Memory)(nil)
