package tunnel

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State of a tunnel session. Closed is terminal.
type State int32

const (
	StateConnecting State = iota
	StatePiping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StatePiping:
		return "piping"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is one accepted upgrade.
type Session struct {
	ID      string
	Remote  string
	Started time.Time

	state    atomic.Int32
	up, down atomic.Int64
}

func newSession(remote string) *Session {
	s := &Session{ID: uuid.NewString(), Remote: remote, Started: time.Now()}
	s.state.Store(int32(StateConnecting))
	return s
}

// State returns the current state.
func (s *Session) State() State { return State(s.state.Load()) }

// advance moves the session forward. Transitions out of Closed or backwards
// are ignored.
func (s *Session) advance(to State) bool {
	for {
		cur := s.state.Load()
		if State(cur) == StateClosed || State(cur) >= to {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(to)) {
			return true
		}
	}
}

// SessionInfo is a snapshot of a session for status output.
type SessionInfo struct {
	ID              string `json:"id"`
	Remote          string `json:"remote"`
	State           string `json:"state"`
	StartedUnix     int64  `json:"started_unix"`
	BytesUpstream   int64  `json:"bytes_upstream"`
	BytesDownstream int64  `json:"bytes_downstream"`
}

func (s *Session) info() SessionInfo {
	return SessionInfo{
		ID:              s.ID,
		Remote:          s.Remote,
		State:           s.State().String(),
		StartedUnix:     s.Started.Unix(),
		BytesUpstream:   s.up.Load(),
		BytesDownstream: s.down.Load(),
	}
}

// Registry tracks live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry { return &Registry{sessions: make(map[string]*Session)} }

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	sessionsActive.Inc()
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	_, ok := r.sessions[s.ID]
	delete(r.sessions, s.ID)
	r.mu.Unlock()
	if ok {
		sessionsActive.Dec()
	}
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshot lists live sessions, oldest first.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.Lock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.info())
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedUnix < out[j].StartedUnix })
	return out
}
