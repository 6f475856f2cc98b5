package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/metrics"
	"github.com/MrSnakeDoc/folio/internal/placeholder"
)

// Snapshot is the render-facing state of a session at one point in time.
type Snapshot struct {
	Version    uint64
	Content    string
	Pending    bool
	Dashboards Result
	SettledAt  time.Time // zero while pending
}

// Session owns the resolution cache for one piece of content.
//
// SetContent starts a resolution keyed to a new version and abandons the
// previous one, retry timers included. A resolution that settles after its
// version was superseded is dropped.
type Session struct {
	id       string
	resolver DashboardResolver
	logger   logger.Logger

	mu         sync.Mutex
	version    uint64
	content    string
	pending    bool
	dashboards Result
	settledAt  time.Time
	cancel     context.CancelFunc
	settled    chan struct{}
}

// NewSession creates an empty, settled session.
func NewSession(r DashboardResolver, log logger.Logger) *Session {
	id := uuid.NewString()
	if v7, err := uuid.NewV7(); err == nil {
		id = v7.String()
	}
	return &Session{
		id:         id,
		resolver:   r,
		logger:     log.With(logger.String("session", id)),
		dashboards: Result{},
		settled:    closedChan(),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// SetContent replaces the session content and returns the new version.
// Setting the same content again keeps the current version and resolution.
func (s *Session) SetContent(ctx context.Context, content string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version > 0 && content == s.content {
		return s.version
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.version++
	s.content = content
	s.dashboards = Result{}
	s.settledAt = time.Time{}
	version := s.version

	ids := placeholder.ExtractIdentifiers(content)
	if len(ids) == 0 {
		s.pending = false
		s.settledAt = time.Now()
		s.settled = closedChan()
		return version
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.pending = true
	settled := make(chan struct{})
	s.settled = settled

	go s.run(runCtx, version, ids, settled)

	return version
}

func (s *Session) run(ctx context.Context, version uint64, ids []string, settled chan struct{}) {
	result := s.resolver.Resolve(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		metrics.ObserveStaleResolution()
		s.logger.Debug("dropping superseded resolution",
			logger.Uint64("version", version),
			logger.Uint64("current", s.version))
		close(settled)
		return
	}

	// Abandoned through Close or the parent context: nothing was resolved,
	// so the content stays pending.
	if ctx.Err() != nil {
		s.logger.Debug("resolution abandoned",
			logger.Uint64("version", version),
			logger.Error(ctx.Err()))
		close(settled)
		return
	}

	if result == nil {
		result = Result{}
	}
	s.dashboards = result
	s.pending = false
	s.settledAt = time.Now()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	close(settled)

	s.logger.Debug("resolution settled",
		logger.Uint64("version", version),
		logger.Int("requested", len(ids)),
		logger.Int("resolved", len(result)))
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Wait blocks until the current version settles or ctx ends, then returns
// the state at that moment. If the content changes while waiting, Wait
// follows the newest version.
func (s *Session) Wait(ctx context.Context) Snapshot {
	for {
		s.mu.Lock()
		settled := s.settled
		version := s.version
		s.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return s.Snapshot()
		}

		s.mu.Lock()
		if s.version == version {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap
		}
		s.mu.Unlock()
	}
}

// Close abandons any in-flight resolution.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Version:    s.version,
		Content:    s.content,
		Pending:    s.pending,
		Dashboards: s.dashboards,
		SettledAt:  s.settledAt,
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
