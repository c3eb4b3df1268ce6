package stream

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Registry owns every live transcode session. It is the only shared mutable
// state in the engine and guarantees at most one session per asset key:
// acquiring a key preempts and fully tears down any previous holder before
// the new session is registered.
type Registry struct {
	baseDir     string
	gracePeriod time.Duration
	// maxSessions caps concurrent sessions across all assets; 0 = unbounded.
	maxSessions int
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	keyLocks map[string]*sync.Mutex
}

// NewRegistry creates a session registry writing under baseDir.
func NewRegistry(baseDir string, gracePeriod time.Duration, maxSessions int, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		baseDir:     baseDir,
		gracePeriod: gracePeriod,
		maxSessions: maxSessions,
		logger:      logger,
		sessions:    make(map[string]*Session),
		keyLocks:    make(map[string]*sync.Mutex),
	}
}

// keyLock returns the per-asset mutex, creating it on first use. Per-key
// locking keeps a slow preemption (up to the grace period) from blocking
// acquires for unrelated assets.
func (r *Registry) keyLock(assetKey string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.keyLocks[assetKey]
	if !ok {
		lock = &sync.Mutex{}
		r.keyLocks[assetKey] = lock
	}
	return lock
}

// Acquire registers a new session for the asset, preempting any existing
// one. The old session's process is terminated and its directory deleted
// before the new session's directory is created. Atomic per asset key: of
// two concurrent acquires for the same key, one fully tears down the other's
// session before proceeding.
func (r *Registry) Acquire(assetKey string, startSegment int, durationSeconds float64) (*Session, error) {
	lock := r.keyLock(assetKey)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	old := r.sessions[assetKey]
	r.mu.Unlock()

	if old != nil {
		r.logger.Info("preempting transcode session",
			slog.String("asset", assetKey),
			slog.String("session_id", old.ID))
		r.terminate(old)
		r.mu.Lock()
		delete(r.sessions, assetKey)
		r.mu.Unlock()
	}

	session := newSession(assetKey, "", startSegment, durationSeconds)
	session.Dir = filepath.Join(r.baseDir, assetKey, session.ID)
	if err := os.MkdirAll(session.Dir, 0o755); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.mu.Unlock()
		os.RemoveAll(session.Dir)
		return nil, ErrTooManySessions
	}
	r.sessions[assetKey] = session
	r.mu.Unlock()

	return session, nil
}

// Release stops and removes the asset's session. A release for an asset with
// no session is a no-op, so client stop requests are idempotent.
func (r *Registry) Release(assetKey string) {
	lock := r.keyLock(assetKey)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	session := r.sessions[assetKey]
	delete(r.sessions, assetKey)
	r.mu.Unlock()

	if session != nil {
		r.terminate(session)
	}
}

// Evict removes a specific session after its encoder failed. Unlike Release
// it only acts if the given session is still the asset's current one, so a
// late exit notification from a preempted process cannot tear down its
// successor.
func (r *Registry) Evict(assetKey, sessionID string) {
	lock := r.keyLock(assetKey)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	session := r.sessions[assetKey]
	if session == nil || session.ID != sessionID {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, assetKey)
	r.mu.Unlock()

	r.terminate(session)
}

// Get returns the asset's current session.
func (r *Registry) Get(assetKey string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[assetKey]
	return session, ok
}

// FindBySessionID resolves a session identifier to its session. Playback
// URLs carry only the session ID, not the asset key.
func (r *Registry) FindBySessionID(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.ID == sessionID {
			return session, true
		}
	}
	return nil, false
}

// Sessions returns a snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// DrainAll terminates every session. Called at shutdown so no encoder
// process outlives the server.
func (r *Registry) DrainAll() {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		snapshot = append(snapshot, session)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, session := range snapshot {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			r.terminate(s)
		}(session)
	}
	wg.Wait()
}

// terminate stops the session's encoder (graceful signal, then kill after
// the grace period) and scrubs its output directory.
func (r *Registry) terminate(session *Session) {
	if cmd := session.Process(); cmd != nil && cmd.IsRunning() {
		if err := cmd.Terminate(); err == nil {
			done := make(chan struct{})
			go func() {
				cmd.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(r.gracePeriod):
				r.logger.Warn("encoder ignored termination signal, killing",
					slog.String("session_id", session.ID),
					slog.Int("pid", cmd.PID()))
				cmd.Kill()
				<-done
			}
		} else {
			cmd.Kill()
		}
	}

	if session.Dir != "" {
		if err := os.RemoveAll(session.Dir); err != nil {
			r.logger.Warn("removing session directory",
				slog.String("dir", session.Dir),
				slog.String("error", err.Error()))
		}
	}
}
