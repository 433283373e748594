package identity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/transport"
)

// RequestSource reports the principal of a single request's bearer token.
// It emits exactly one event per subscription: the principal, or nil when the
// token is missing or fails verification.
type RequestSource struct {
	token    string
	verifier TokenVerifier
	logger   *slog.Logger
}

var _ auth.PrincipalSource = (*RequestSource)(nil)

func NewRequestSource(token string, verifier TokenVerifier, logger *slog.Logger) *RequestSource {
	return &RequestSource{token: token, verifier: verifier, logger: logger}
}

func (s *RequestSource) Subscribe(ctx context.Context, fn func(*auth.Principal)) func() {
	if s.token == "" || s.verifier == nil {
		fn(nil)
		return func() {}
	}
	p, err := s.verifier.Verify(ctx, s.token)
	if err != nil {
		s.logger.Warn("remote identity token rejected", "error", err)
		fn(nil)
		return func() {}
	}
	fn(p)
	return func() {}
}

// RequestSources returns the per-request factory used by the session middleware.
func RequestSources(verifier TokenVerifier, logger *slog.Logger) auth.SourceFactory {
	return func(r *http.Request) auth.PrincipalSource {
		return NewRequestSource(transport.BearerToken(r), verifier, logger)
	}
}

// StaticSource holds a principal that can be changed at runtime and notifies
// subscribers of every change. Used in development and tests.
type StaticSource struct {
	mu        sync.Mutex
	principal *auth.Principal
	nextID    int
	subs      map[int]func(*auth.Principal)
}

var _ auth.PrincipalSource = (*StaticSource)(nil)

func NewStaticSource(p *auth.Principal) *StaticSource {
	return &StaticSource{principal: p, subs: make(map[int]func(*auth.Principal))}
}

// Subscribe delivers the current principal immediately, then every change.
func (s *StaticSource) Subscribe(_ context.Context, fn func(*auth.Principal)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.principal
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *StaticSource) Set(p *auth.Principal) {
	s.mu.Lock()
	s.principal = p
	fns := make([]func(*auth.Principal), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

func (s *StaticSource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
