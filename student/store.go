package student

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	// ErrDuplicateEmail is returned when a student with the same e-mail exists.
	ErrDuplicateEmail = errors.New("student with this email already exists")
	// ErrNotFound is returned by lookups for unknown students.
	ErrNotFound = errors.New("student not found")
)

// Store persists students. Implementations are supplied by the application.
type Store interface {
	Insert(ctx context.Context, s Student) error
}

// MemoryStore is an in-process Store keyed by ID with a unique e-mail index.
// Safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	byID     map[string]Student
	byEmail  map[string]string
	failures []error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Student),
		byEmail: make(map[string]string),
	}
}

// FailNext makes the next len(errs) Insert calls fail with errs, in order.
func (m *MemoryStore) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Insert adds s. E-mail uniqueness is case-insensitive.
func (m *MemoryStore) Insert(ctx context.Context, s Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return err
	}
	key := strings.ToLower(s.Email)
	if _, ok := m.byEmail[key]; ok {
		return ErrDuplicateEmail
	}
	m.byID[s.ID] = s
	m.byEmail[key] = s.ID
	return nil
}

// Get returns the student with id.
func (m *MemoryStore) Get(id string) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

// Len returns the number of stored students.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
