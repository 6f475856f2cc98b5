// Package blog serves posts: listing with comment counts, and rendering
// post content with its dashboard placeholders resolved.
package blog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/folio/internal/cache"
	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/placeholder"
	"github.com/MrSnakeDoc/folio/internal/render"
	"github.com/MrSnakeDoc/folio/internal/resolver"
)

// DefaultRenderWait bounds how long a render waits for resolution before
// emitting loading skeletons.
const DefaultRenderWait = 2 * time.Second

// DefaultSessionTTL is how long a settled resolution is reused before the
// next render resolves the same content again.
const DefaultSessionTTL = 30 * time.Second

// PostStore reads published posts.
type PostStore interface {
	GetPost(ctx context.Context, slug string) (domain.Post, error)
	ListPosts(ctx context.Context, limit int) ([]domain.Post, error)
}

// CommentCounter counts approved comments of a post.
type CommentCounter interface {
	CountComments(ctx context.Context, postID string) (int, error)
}

// ViewCounter records page views.
type ViewCounter interface {
	IncrementViews(ctx context.Context, slug string) (int64, error)
}

// Options configures a Service. Comments and Views may be nil.
type Options struct {
	Posts      PostStore
	Comments   CommentCounter
	Views      ViewCounter
	Cache      cache.Cache
	Resolver   resolver.DashboardResolver
	Logger     logger.Logger
	RenderWait time.Duration
	SessionTTL time.Duration
	CommentTTL time.Duration
}

// Service is the read side of the blog.
//
// Resolutions outlive the request that started them: each post, hydrated
// placeholder and previewed content owns a session that runs its retry policy
// to the end, and later requests for the same key read its state.
type Service struct {
	posts      PostStore
	comments   CommentCounter
	views      ViewCounter
	cache      cache.Cache
	resolver   resolver.DashboardResolver
	logger     logger.Logger
	wait       time.Duration
	sessionTTL time.Duration
	commentTTL time.Duration
	now        func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc

	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	lastSweep time.Time
}

type sessionEntry struct {
	session  *resolver.Session
	lastUsed time.Time
}

// Rendered is the outcome of one render pass.
type Rendered struct {
	Nodes   render.Nodes
	Pending bool // some placeholders were still resolving when the wait ended
	Version uint64
}

// Page is a post ready for display.
type Page struct {
	Post     domain.Post
	Rendered Rendered
	Views    int64
	Comments int
}

// New builds a Service.
func New(opts Options) *Service {
	if opts.RenderWait <= 0 {
		opts.RenderWait = DefaultRenderWait
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory(0)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Service{
		posts:      opts.Posts,
		comments:   opts.Comments,
		views:      opts.Views,
		cache:      opts.Cache,
		resolver:   opts.Resolver,
		logger:     opts.Logger,
		wait:       opts.RenderWait,
		sessionTTL: opts.SessionTTL,
		commentTTL: opts.CommentTTL,
		now:        time.Now,
		baseCtx:    baseCtx,
		stop:       stop,
		sessions:   make(map[string]*sessionEntry),
	}
}

// Close abandons every in-flight resolution.
func (s *Service) Close() {
	s.stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.sessions {
		e.session.Close()
		delete(s.sessions, key)
	}
}

// ListPosts returns published post summaries, newest first, with comment counts.
func (s *Service) ListPosts(ctx context.Context, limit int) ([]domain.PostSummary, error) {
	posts, err := s.posts.ListPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	out := make([]domain.PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Summary(s.commentCount(ctx, p.ID)))
	}
	return out, nil
}

// Post loads a published post, records a view and renders its content.
func (s *Service) Post(ctx context.Context, slug string) (Page, error) {
	post, err := s.posts.GetPost(ctx, slug)
	if err != nil {
		return Page{}, fmt.Errorf("post %s: %w", slug, err)
	}

	page := Page{
		Post:     post,
		Rendered: s.render(ctx, "post:"+slug, post.Content),
		Comments: s.commentCount(ctx, post.ID),
	}

	if s.views != nil {
		views, err := s.views.IncrementViews(ctx, slug)
		if err != nil {
			s.logger.Debug("failed to record view",
				logger.String("slug", slug),
				logger.Error(err))
		}
		page.Views = views
	}

	return page, nil
}

// Render resolves the placeholders in content and renders it.
//
// It waits at most the configured budget, or until ctx ends; placeholders
// still resolving at that point render as loading nodes. The resolution keeps
// running, so rendering the same content again picks up its result.
func (s *Service) Render(ctx context.Context, content string) Rendered {
	sum := sha256.Sum256([]byte(content))
	return s.render(ctx, "content:"+hex.EncodeToString(sum[:]), content)
}

// Embed renders the expansion of a single dashboard placeholder, used to
// hydrate loading skeletons after the page was served.
func (s *Service) Embed(ctx context.Context, dashboardID string) Rendered {
	return s.render(ctx, "embed:"+dashboardID, placeholder.Format(dashboardID))
}

// render waits on the session owned by key. New content under the same key
// supersedes the previous resolution.
func (s *Service) render(ctx context.Context, key, content string) Rendered {
	session := s.session(key)
	session.SetContent(s.baseCtx, content)

	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()
	snap := session.Wait(waitCtx)

	return Rendered{
		Nodes: render.Render(snap.Content, render.State{
			Pending:    snap.Pending,
			Dashboards: snap.Dashboards,
		}),
		Pending: snap.Pending,
		Version: snap.Version,
	}
}

// session returns the live session for key. A session whose resolution
// settled more than the session TTL ago is replaced by a fresh one.
func (s *Service) session(key string) *resolver.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	e, ok := s.sessions[key]
	if ok && s.expired(e.session.Snapshot(), now) {
		e.session.Close()
		ok = false
	}
	if !ok {
		e = &sessionEntry{session: resolver.NewSession(s.resolver, s.logger)}
		s.sessions[key] = e
	}
	e.lastUsed = now
	return e.session
}

func (s *Service) expired(snap resolver.Snapshot, now time.Time) bool {
	return !snap.Pending && !snap.SettledAt.IsZero() && now.Sub(snap.SettledAt) >= s.sessionTTL
}

// sweepLocked drops expired sessions and those nobody asked for in ten TTLs.
// It runs at most once per TTL.
func (s *Service) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.sessionTTL {
		return
	}
	s.lastSweep = now

	for key, e := range s.sessions {
		if s.expired(e.session.Snapshot(), now) || now.Sub(e.lastUsed) >= 10*s.sessionTTL {
			e.session.Close()
			delete(s.sessions, key)
		}
	}
}

// Invalidate drops every settled session so the next render resolves
// against the current catalog. Resolutions still running are kept.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.sessions {
		if !e.session.Snapshot().Pending {
			e.session.Close()
			delete(s.sessions, key)
		}
	}
}

// Sessions returns the number of live resolution sessions.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) commentCount(ctx context.Context, postID string) int {
	if s.comments == nil || postID == "" {
		return 0
	}
	n, err := cache.GetOrLoadInt(ctx, s.cache, cache.CommentCountKey(postID), s.commentTTL,
		func(ctx context.Context) (int, error) {
			return s.comments.CountComments(ctx, postID)
		})
	if err != nil {
		s.logger.Debug("failed to count comments",
			logger.String("post_id", postID),
			logger.Error(err))
		return 0
	}
	return n
}
