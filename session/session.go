package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for interactions against a session that
	// resolved, expired or never existed. Handlers map it to a
	// "no longer exists" reply.
	ErrNotFound = errors.New("session no longer exists")

	// ErrExists guards the one-active-session-per-key invariant.
	ErrExists = errors.New("a session is already active for this key")

	// ErrFull is returned by Join once capacity is reached.
	ErrFull = errors.New("session is full")

	// ErrAlreadyJoined is returned when a participant joins twice.
	ErrAlreadyJoined = errors.New("already joined")
)

// State is the lifecycle position of a session.
type State int

const (
	StateCreated State = iota
	StateAwaitingInput
	StateResolved
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateResolved:
		return "resolved"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session is a snapshot of one in-flight game, battle or recruitment.
// Sessions live only in process memory and are lost on restart.
type Session struct {
	ID           string
	Key          string
	Kind         string
	ChannelID    string
	Capacity     int
	Participants []string
	Choices      map[string]string
	State        State
	CreatedAt    time.Time
	Deadline     time.Time
}

func (s Session) snapshot() Session {
	out := s
	out.Participants = append([]string(nil), s.Participants...)
	out.Choices = make(map[string]string, len(s.Choices))
	for k, v := range s.Choices {
		out.Choices[k] = v
	}
	return out
}

// ExpireFunc runs after a session times out, outside the store lock.
type ExpireFunc func(Session)

type tracked struct {
	session  Session
	timer    *time.Timer
	onExpire ExpireFunc
}

// Store owns every ephemeral session and the timers that expire them.
// All mutation happens under one mutex; the expiry callback re-checks
// membership, so a timer firing after resolution is a no-op.
type Store struct {
	mx sync.Mutex

	timeout  time.Duration
	sessions map[string]*tracked
}

func New(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Store{
		timeout:  timeout,
		sessions: make(map[string]*tracked),
	}
}

// Options shape a new session.
type Options struct {
	Kind         string
	ChannelID    string
	Capacity     int
	Participants []string
	Timeout      time.Duration
	OnExpire     ExpireFunc
}

// Create registers a new session under key. It fails with ErrExists
// while another session is live under the same key.
func (s *Store) Create(key string, opts Options) (Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = s.timeout
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	if _, ok := s.sessions[key]; ok {
		return Session{}, ErrExists
	}

	now := time.Now()
	sess := Session{
		ID:           uuid.NewString(),
		Key:          key,
		Kind:         opts.Kind,
		ChannelID:    opts.ChannelID,
		Capacity:     opts.Capacity,
		Participants: append([]string(nil), opts.Participants...),
		Choices:      make(map[string]string),
		State:        StateAwaitingInput,
		CreatedAt:    now,
		Deadline:     now.Add(opts.Timeout),
	}

	t := &tracked{
		session:  sess,
		onExpire: opts.OnExpire,
	}
	t.timer = time.AfterFunc(opts.Timeout, func() {
		s.expire(key, sess.ID)
	})

	s.sessions[key] = t

	slog.Debug("session created", "key", key, "kind", opts.Kind, "timeout", opts.Timeout.String())
	return sess.snapshot(), nil
}

// Get returns a snapshot of the live session under key.
func (s *Store) Get(key string) (Session, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()

	t, ok := s.sessions[key]
	if !ok {
		return Session{}, false
	}
	return t.session.snapshot(), true
}

// Join adds a participant. Capacity is enforced under the store lock,
// so concurrent joins against the last slot admit exactly one caller.
func (s *Store) Join(key string, userID string) (Session, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	t, ok := s.sessions[key]
	if !ok || t.session.State != StateAwaitingInput {
		return Session{}, ErrNotFound
	}

	for _, p := range t.session.Participants {
		if p == userID {
			return t.session.snapshot(), ErrAlreadyJoined
		}
	}

	if t.session.Capacity > 0 && len(t.session.Participants) >= t.session.Capacity {
		return t.session.snapshot(), ErrFull
	}

	t.session.Participants = append(t.session.Participants, userID)
	return t.session.snapshot(), nil
}

// Submit records a participant's choice. When every participant has
// answered, the session resolves: its timer stops, the entry is gone,
// and the returned snapshot carries StateResolved.
func (s *Store) Submit(key string, userID string, choice string) (Session, bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	t, ok := s.sessions[key]
	if !ok || t.session.State != StateAwaitingInput {
		return Session{}, false, ErrNotFound
	}

	member := false
	for _, p := range t.session.Participants {
		if p == userID {
			member = true
			break
		}
	}
	if !member {
		return Session{}, false, ErrNotFound
	}

	t.session.Choices[userID] = choice

	if len(t.session.Choices) < len(t.session.Participants) {
		return t.session.snapshot(), false, nil
	}

	t.session.State = StateResolved
	t.timer.Stop()
	delete(s.sessions, key)

	slog.Debug("session resolved", "key", key, "kind", t.session.Kind)
	return t.session.snapshot(), true, nil
}

// Resolve completes a session explicitly (a filled recruitment, a
// finished battle) and removes it.
func (s *Store) Resolve(key string) (Session, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	t, ok := s.sessions[key]
	if !ok {
		return Session{}, ErrNotFound
	}

	t.session.State = StateResolved
	t.timer.Stop()
	delete(s.sessions, key)

	slog.Debug("session resolved", "key", key, "kind", t.session.Kind)
	return t.session.snapshot(), nil
}

// Cancel drops a session without running its expiry callback.
func (s *Store) Cancel(key string) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	t, ok := s.sessions[key]
	if !ok {
		return ErrNotFound
	}

	t.timer.Stop()
	delete(s.sessions, key)
	return nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mx.Lock()
	defer s.mx.Unlock()

	return len(s.sessions)
}

func (s *Store) expire(key string, id string) {
	s.mx.Lock()

	t, ok := s.sessions[key]
	if !ok || t.session.ID != id {
		// already resolved, or the key was reused by a newer session
		s.mx.Unlock()
		return
	}

	t.session.State = StateExpired
	delete(s.sessions, key)
	snapshot := t.session.snapshot()
	onExpire := t.onExpire

	s.mx.Unlock()

	slog.Debug("session expired", "key", key, "kind", snapshot.Kind)

	if onExpire != nil {
		onExpire(snapshot)
	}
}
