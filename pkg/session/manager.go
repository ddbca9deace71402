package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/internal/logging"
	"github.com/formwork-dev/formwork/pkg/domain"
)

// Info is the listable description of a live form session.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type entry struct {
	form      *formwork.Form
	name      string
	createdAt time.Time
}

// lockEntry holds the per-session mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns live form instances keyed by generated session IDs. Each
// form is already safe for concurrent use; the manager adds per-session
// serialization for callers that need multi-operation atomicity (e.g. a
// transport handler doing read-modify-write against one session). Lock
// entries are garbage collected by reference counting.
type Manager struct {
	mu    sync.RWMutex
	forms map[string]*entry

	lockMu sync.Mutex
	locks  map[string]*lockEntry

	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for internal events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		forms:  make(map[string]*entry),
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create initializes a new form and registers it under a fresh session ID.
// The form is fully initialized (and validated once) before the ID is
// handed out.
func (m *Manager) Create(ctx context.Context, name string, initializer any, opts ...formwork.Option) (string, *formwork.Form, error) {
	opts = append(opts, formwork.WithName(name))
	form, err := formwork.New(ctx, initializer, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("create session %q: %w", name, err)
	}

	id := uuid.NewString()

	m.mu.Lock()
	m.forms[id] = &entry{form: form, name: name, createdAt: m.now()}
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id, "form", name)
	return id, form, nil
}

// Get returns the live form for the session ID.
func (m *Manager) Get(sessionID string) (*formwork.Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.forms[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e.form, nil
}

// Delete removes the session. Deleting an unknown ID is an error so
// callers can distinguish a double delete from a successful one.
func (m *Manager) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.forms[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.forms, sessionID)
	m.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// List returns the registered sessions ordered by creation time.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.forms))
	for id, e := range m.forms {
		infos = append(infos, Info{ID: id, Name: e.name, CreatedAt: e.createdAt})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.forms)
}

// WithLock runs fn while holding the session's lock. The form is looked
// up under the lock so a concurrent Delete cannot race the callback.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(ctx context.Context, form *formwork.Form) error) error {
	e := m.acquire(sessionID)
	e.mu.Lock()
	defer func() {
		e.mu.Unlock()
		m.release(sessionID)
	}()

	form, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	return fn(ctx, form)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock the entry and call release(sessionID) afterwards.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	e, ok := m.locks[sessionID]
	if !ok {
		e = &lockEntry{}
		m.locks[sessionID] = e
	}
	e.refs++
	return e
}

// release decrements the reference count and drops the entry at zero.
func (m *Manager) release(sessionID string) {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	e, ok := m.locks[sessionID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.locks, sessionID)
	}
}
