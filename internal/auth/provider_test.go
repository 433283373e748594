package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/internal/session"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

type mockBackend struct {
	resp  LoginResponse
	err   error
	calls int
}

func (m *mockBackend) Login(_ context.Context, _, _ string) (LoginResponse, error) {
	m.calls++
	return m.resp, m.err
}

// manualSource only emits when told to.
type manualSource struct {
	mu           sync.Mutex
	fn           func(*Principal)
	unsubscribed bool
}

func (s *manualSource) Subscribe(_ context.Context, fn func(*Principal)) func() {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.unsubscribed = true
		s.mu.Unlock()
	}
}

func (s *manualSource) subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

func (s *manualSource) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

func (s *manualSource) emit(p *Principal) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	fn(p)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, ev events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, ev := range b.events {
		out[i] = ev.EventType()
	}
	return out
}

var _ = ginkgo.Describe("Provider", func() {
	var (
		ctx     context.Context
		store   *session.MemoryStore
		backend *mockBackend
		bus     *recordingBus
		cfg     ProviderConfig
		lg      *slog.Logger
	)

	memberID := int64(12)
	member := &User{ID: "7", Username: "ayse", Role: rbac.RoleMember, Position: "STK birim başk", MemberID: &memberID}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = session.NewMemoryStore(time.Hour)
		backend = &mockBackend{}
		bus = &recordingBus{}
		lg = logger.Discard()
		cfg = ProviderConfig{Mode: ModeLocal, Store: store, Backend: backend, Events: bus, Logger: lg}
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should persist the user under a new session id", func() {
			// Given
			backend.resp = LoginResponse{Success: true, User: member}
			p := NewProvider(cfg, "", nil)
			p.Mount(ctx)

			// When
			ok := p.Login(ctx, "ayse", "secret")

			// Then
			gomega.Expect(ok).To(gomega.BeTrue())
			st := p.State()
			gomega.Expect(st.IsLoggedIn).To(gomega.BeTrue())
			gomega.Expect(st.Loading).To(gomega.BeFalse())
			gomega.Expect(st.User).To(gomega.Equal(member))

			snap, err := store.Load(ctx, p.SessionID())
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(snap.IsLoggedIn).To(gomega.Equal("true"))
			stored, err := ParseUser(snap.User)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.Equal(member))

			gomega.Expect(bus.types()).To(gomega.Equal([]string{events.EventTypeUserLoggedIn}))
		})

		ginkgo.It("should rotate the session id and drop the old one", func() {
			gomega.Expect(store.Save(ctx, "old", session.Snapshot{User: "{}", IsLoggedIn: ""})).To(gomega.Succeed())
			backend.resp = LoginResponse{Success: true, User: member}
			p := NewProvider(cfg, "old", nil)
			p.Mount(ctx)

			gomega.Expect(p.Login(ctx, "ayse", "secret")).To(gomega.BeTrue())

			gomega.Expect(p.SessionID()).ToNot(gomega.Equal("old"))
			old, _ := store.Load(ctx, "old")
			gomega.Expect(old.Empty()).To(gomega.BeTrue())
		})

		ginkgo.It("should record the backend message on rejection", func() {
			// Given
			backend.resp = LoginResponse{Success: false, Message: "Giriş başarısız"}
			p := NewProvider(cfg, "", nil)
			p.Mount(ctx)

			// When
			ok := p.Login(ctx, "admin", "wrongpass")

			// Then
			gomega.Expect(ok).To(gomega.BeFalse())
			st := p.State()
			gomega.Expect(st.Error).To(gomega.Equal("Giriş başarısız"))
			gomega.Expect(st.IsLoggedIn).To(gomega.BeFalse())
			gomega.Expect(st.Loading).To(gomega.BeFalse())
			gomega.Expect(store.Len()).To(gomega.Equal(0))
		})

		ginkgo.It("should keep the prior session when a new attempt fails", func() {
			gomega.Expect(store.Save(ctx, "s1", session.Snapshot{User: storedAdmin, IsLoggedIn: "true"})).To(gomega.Succeed())
			backend.resp = LoginResponse{Success: false, Message: "Kullanıcı adı veya şifre hatalı"}
			p := NewProvider(cfg, "s1", nil)
			p.Mount(ctx)

			gomega.Expect(p.Login(ctx, "admin", "bad")).To(gomega.BeFalse())

			gomega.Expect(p.SessionID()).To(gomega.Equal("s1"))
			gomega.Expect(p.State().IsLoggedIn).To(gomega.BeTrue())
			snap, _ := store.Load(ctx, "s1")
			gomega.Expect(snap.User).To(gomega.Equal(storedAdmin))
		})

		ginkgo.It("should record a generic message on backend errors", func() {
			backend.err = errors.New("connection refused")
			p := NewProvider(cfg, "", nil)
			p.Mount(ctx)

			gomega.Expect(p.Login(ctx, "admin", "x")).To(gomega.BeFalse())

			gomega.Expect(p.State().Error).To(gomega.Equal(GenericLoginError))
			gomega.Expect(p.State().Loading).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("should leave a fresh mount logged out", func() {
			// Given
			gomega.Expect(store.Save(ctx, "s1", session.Snapshot{User: storedAdmin, IsLoggedIn: "true"})).To(gomega.Succeed())
			p := NewProvider(cfg, "s1", nil)
			gomega.Expect(p.Mount(ctx).IsLoggedIn).To(gomega.BeTrue())

			// When
			p.Logout(ctx)

			// Then
			gomega.Expect(p.State().IsLoggedIn).To(gomega.BeFalse())
			fresh := NewProvider(cfg, "s1", nil).Mount(ctx)
			gomega.Expect(fresh.IsLoggedIn).To(gomega.BeFalse())
			gomega.Expect(fresh.User).To(gomega.BeNil())
			gomega.Expect(backend.calls).To(gomega.Equal(0))
			gomega.Expect(bus.types()).To(gomega.Equal([]string{events.EventTypeUserLoggedOut}))
		})
	})

	ginkgo.Describe("Mount in remote mode", func() {
		ginkgo.BeforeEach(func() {
			cfg.Mode = ModeRemote
			cfg.PrincipalTimeout = 2 * time.Second
		})

		ginkgo.It("should wait for the principal and unsubscribe on close", func() {
			gomega.Expect(store.Save(ctx, "s1", session.Snapshot{User: storedAdmin, IsLoggedIn: "true"})).To(gomega.Succeed())
			src := &manualSource{}
			p := NewProvider(cfg, "s1", src)

			done := make(chan State)
			go func() { done <- p.Mount(ctx) }()
			gomega.Eventually(src.subscribed).Should(gomega.BeTrue())
			src.emit(&Principal{UID: "42"})

			var st State
			gomega.Eventually(done).Should(gomega.Receive(&st))
			gomega.Expect(st.IsLoggedIn).To(gomega.BeTrue())
			gomega.Expect(st.Loading).To(gomega.BeFalse())

			p.Close()
			gomega.Expect(src.closed()).To(gomega.BeTrue())
		})

		ginkgo.It("should purge a snapshot owned by another principal", func() {
			gomega.Expect(store.Save(ctx, "s1", session.Snapshot{User: storedAdmin, IsLoggedIn: "true"})).To(gomega.Succeed())
			src := &manualSource{}
			p := NewProvider(cfg, "s1", src)

			go func() {
				defer ginkgo.GinkgoRecover()
				gomega.Eventually(src.subscribed).Should(gomega.BeTrue())
				src.emit(&Principal{UID: "someone-else"})
			}()
			st := p.Mount(ctx)

			gomega.Expect(st.IsLoggedIn).To(gomega.BeFalse())
			snap, _ := store.Load(ctx, "s1")
			gomega.Expect(snap.Empty()).To(gomega.BeTrue())
		})

		ginkgo.It("should resolve anonymous when the principal never arrives", func() {
			gomega.Expect(store.Save(ctx, "s1", session.Snapshot{User: storedAdmin, IsLoggedIn: "true"})).To(gomega.Succeed())
			cfg.PrincipalTimeout = 50 * time.Millisecond
			p := NewProvider(cfg, "s1", &manualSource{})

			st := p.Mount(ctx)

			gomega.Expect(st.Loading).To(gomega.BeFalse())
			gomega.Expect(st.IsLoggedIn).To(gomega.BeFalse())
		})
	})
})
