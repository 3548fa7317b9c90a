package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Notification
	users map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: map[uuid.UUID]*Notification{}, users: map[uuid.UUID]bool{}}
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.UserID != nil && !m.users[*n.UserID] {
		return &db.ConstraintError{Sentinel: db.ErrForeignKeyAbsent}
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	m.items[n.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Notification
	for _, n := range m.items {
		if n.UserID == nil || *n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		all = append(all, &cp)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return db.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (m *mockRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.items {
		if n.UserID != nil && *n.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockRepo) addUser() uuid.UUID {
	id := uuid.New()
	m.users[id] = true
	return id
}
