// Package manager implements the process-singleton Session Manager: the
// registry of every active Session, the default-session selection rule,
// and the session-id derivation rule used when a caller doesn't name one.
package manager

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opendbg/netdbg-mcp/internal/errors"
	"github.com/opendbg/netdbg-mcp/internal/session"
)

// knownSuffixes are project-name tail segments that already read as good
// session ids on their own (no further transformation needed).
var knownSuffixes = map[string]bool{
	"api": true, "worker": true, "web": true, "service": true,
	"server": true, "client": true, "app": true, "host": true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveID turns a project path or name into a session id: the last
// dot-segment, lowercased, if it's a recognized suffix (e.g. "Orders.Api"
// -> "api"); otherwise the whole base name kebab-cased (e.g.
// "OrdersBackend" -> "orders-backend"). Collisions against existing are
// resolved with a numeric suffix ("-2", "-3", ...).
func DeriveID(projectPath string, existing map[string]bool) string {
	base := filepath.Base(projectPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return uniqueID(uuid.NewString(), existing)
	}

	segments := strings.Split(base, ".")
	last := strings.ToLower(segments[len(segments)-1])

	var id string
	if knownSuffixes[last] {
		id = last
	} else {
		id = kebabCase(base)
	}
	if id == "" {
		id = uuid.NewString()
	}

	return uniqueID(id, existing)
}

// kebabCase lowercases s and inserts hyphens at case transitions and in
// place of any run of non-alphanumeric separators (dots, underscores,
// spaces), e.g. "OrdersBackend" -> "orders-backend", "orders_backend" ->
// "orders-backend".
func kebabCase(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := runes[i-1]
				prevIsLower := prev >= 'a' && prev <= 'z'
				prevIsDigit := prev >= '0' && prev <= '9'
				if prevIsLower || prevIsDigit {
					sb.WriteByte('-')
				}
			}
			sb.WriteRune(r - 'A' + 'a')
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Trim(nonAlnum.ReplaceAllString(sb.String(), "-"), "-")
}

func uniqueID(base string, existing map[string]bool) string {
	if !existing[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !existing[candidate] {
			return candidate
		}
	}
}

// Manager owns every live Session, keyed by id, plus which one is the
// default target for tool calls that omit a sessionId.
type Manager struct {
	mu             sync.RWMutex
	sessions       map[string]*session.Session
	defaultSession string

	maxSessions    int
	sessionTimeout time.Duration
}

// New creates an empty Manager.
func New(maxSessions int, sessionTimeout time.Duration) *Manager {
	return &Manager{
		sessions:       make(map[string]*session.Session),
		maxSessions:    maxSessions,
		sessionTimeout: sessionTimeout,
	}
}

// Add registers a newly created session under id, promoting it to the
// default session if it's the only one. Returns an error if the session
// limit is reached or id is already in use.
func (m *Manager) Add(s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return errors.DuplicateID(s.ID)
	}
	if len(m.sessions) >= m.maxSessions {
		return errors.SessionLimitReached(m.maxSessions)
	}

	m.sessions[s.ID] = s
	if m.defaultSession == "" {
		m.defaultSession = s.ID
	}
	return nil
}

// NextID derives a fresh, collision-free session id for projectPath.
func (m *Manager) NextID(projectPath string) string {
	m.mu.RLock()
	existing := make(map[string]bool, len(m.sessions))
	for id := range m.sessions {
		existing[id] = true
	}
	m.mu.RUnlock()
	return DeriveID(projectPath, existing)
}

// Get resolves a session id, falling back to the default session when id
// is empty.
func (m *Manager) Get(id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id == "" {
		id = m.defaultSession
	}
	if id == "" {
		return nil, errors.SessionNotFound("", m.idsLocked())
	}

	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.SessionNotFound(id, m.idsLocked())
	}
	return s, nil
}

func (m *Manager) idsLocked() []string {
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// List returns every active session.
func (m *Manager) List() []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// DefaultID returns the id of the current default session, or "" if none.
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultSession
}

// SelectDefault changes the default session. Returns an error if id is
// unknown.
func (m *Manager) SelectDefault(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.SessionNotFound(id, m.idsLocked())
	}
	m.defaultSession = id
	return nil
}

// Remove terminates and unregisters a session, promoting another session
// (arbitrary selection among those remaining) to default if the removed
// session was the default.
func (m *Manager) Remove(id string, terminateDebuggee bool) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return errors.SessionNotFound(id, m.idsLocked())
	}
	delete(m.sessions, id)

	wasDefault := m.defaultSession == id
	if wasDefault {
		m.defaultSession = ""
		for otherID := range m.sessions {
			m.defaultSession = otherID
			break
		}
	}
	m.mu.Unlock()

	return s.Terminate(terminateDebuggee)
}

// Shutdown terminates every session, for server shutdown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*session.Session)
	m.defaultSession = ""
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Terminate(true)
	}
}
