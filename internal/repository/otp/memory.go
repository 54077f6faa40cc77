package otp

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
)

type entry struct {
	Code      string
	ExpiresAt time.Time
}

type memoryRepo struct {
	mu    sync.RWMutex
	codes map[string]entry
	now   func() time.Time
}

// NewMemory returns a process-local Repository. Codes do not survive restarts
// and are not shared between instances.
func NewMemory() Repository {
	return newMemory(time.Now)
}

func newMemory(now func() time.Time) *memoryRepo {
	return &memoryRepo{codes: make(map[string]entry), now: now}
}

func (m *memoryRepo) Save(_ context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	m.codes[normalize(email)] = entry{Code: code, ExpiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) Get(_ context.Context, email string) (string, error) {
	key := normalize(email)
	m.mu.RLock()
	e, ok := m.codes[key]
	m.mu.RUnlock()
	if !ok {
		return "", domain.ErrNotFound
	}
	if m.now().After(e.ExpiresAt) {
		m.mu.Lock()
		if cur, ok := m.codes[key]; ok && cur == e {
			delete(m.codes, key)
		}
		m.mu.Unlock()
		return "", domain.ErrNotFound
	}
	return e.Code, nil
}

func (m *memoryRepo) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	delete(m.codes, normalize(email))
	m.mu.Unlock()
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
