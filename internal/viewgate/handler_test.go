package viewgate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/internal/session"
	"github.com/sekreterlik/sekreterlik/internal/transport"
	"github.com/sekreterlik/sekreterlik/internal/viewgate"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

type staticGrants map[string][]string

func (s staticGrants) GrantsFor(_ context.Context, position string) rbac.Grants {
	return rbac.NewGrants(s[position])
}

var _ = Describe("Dashboard Handler", func() {
	var (
		store   *session.MemoryStore
		handler *viewgate.Handler
		clock   *fakeClock
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = &fakeClock{t: time.Date(2024, 3, 31, 9, 0, 0, 0, time.UTC)}
		store = session.NewMemoryStore(time.Hour)
		grants := staticGrants{"Saha Sorumlusu": {"view_members"}}
		handler = viewgate.NewHandler(transport.NewBaseHandler(logger.Discard()), grants, store, viewgate.Config{
			Unlisted: viewgate.UnlistedAllow,
			ErrorTTL: viewgate.DefaultErrorTTL,
			Now:      clock.Now,
		})
	})

	signIn := func(user string) *auth.Provider {
		Expect(store.Save(ctx, "s1", session.Snapshot{User: user, IsLoggedIn: session.LoggedInFlag})).To(Succeed())
		p := auth.NewProvider(auth.ProviderConfig{Mode: auth.ModeLocal, Store: store, Logger: logger.Discard()}, "s1", nil)
		p.Mount(ctx)
		return p
	}

	call := func(p *auth.Provider, h http.HandlerFunc, method, body string) (int, viewgate.DashboardResponse) {
		req := httptest.NewRequest(method, "/member-dashboard", strings.NewReader(body))
		if p != nil {
			req = req.WithContext(auth.WithProvider(req.Context(), p))
		}
		w := httptest.NewRecorder()
		h(w, req)
		var resp viewgate.DashboardResponse
		if w.Code == http.StatusOK {
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		}
		return w.Code, resp
	}

	It("should keep the selected view across requests", func() {
		p := signIn(`{"id":9,"role":"member","position":"Saha Sorumlusu"}`)

		code, resp := call(p, handler.SwitchView, http.MethodPost, `{"view":"members"}`)
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.CurrentView).To(Equal(rbac.ViewMemberList))

		_, resp = call(p, handler.Show, http.MethodGet, "")
		Expect(resp.CurrentView).To(Equal(rbac.ViewMemberList))
		Expect(resp.Permissions).To(Equal([]string{"view_members"}))
		Expect(resp.Views).To(HaveKeyWithValue(rbac.ViewMemberList, true))
	})

	It("should answer a denied switch with the dashboard and a transient message", func() {
		p := signIn(`{"id":9,"role":"member","position":"Saha Sorumlusu"}`)

		code, resp := call(p, handler.SwitchView, http.MethodPost, `{"view":"elections"}`)
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.CurrentView).To(Equal(rbac.ViewDashboard))
		Expect(resp.Error).To(Equal(viewgate.DeniedMessage))

		_, resp = call(p, handler.Show, http.MethodGet, "")
		Expect(resp.Error).To(Equal(viewgate.DeniedMessage))

		clock.Advance(3 * time.Second)
		_, resp = call(p, handler.Show, http.MethodGet, "")
		Expect(resp.Error).To(BeEmpty())
	})

	It("should open every view for an admin", func() {
		p := signIn(`{"id":1,"role":"admin"}`)

		_, resp := call(p, handler.SwitchView, http.MethodPost, `{"view":"elections"}`)

		Expect(resp.CurrentView).To(Equal(rbac.ViewElections))
	})

	It("should drop a stored view that is no longer allowed", func() {
		p := signIn(`{"id":9,"role":"member","position":"Saha Sorumlusu"}`)
		Expect(store.SaveView(ctx, "s1", `{"currentView":"reports"}`)).To(Succeed())

		_, resp := call(p, handler.Show, http.MethodGet, "")

		Expect(resp.CurrentView).To(Equal(rbac.ViewDashboard))
		raw, err := store.LoadView(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(ContainSubstring(`"currentView":"dashboard"`))
	})

	It("should reject a request without session", func() {
		code, _ := call(nil, handler.Show, http.MethodGet, "")

		Expect(code).To(Equal(http.StatusUnauthorized))
	})

	It("should reject an empty view", func() {
		p := signIn(`{"id":9,"role":"member","position":"Saha Sorumlusu"}`)

		code, _ := call(p, handler.SwitchView, http.MethodPost, `{"view":"  "}`)

		Expect(code).To(Equal(http.StatusBadRequest))
	})
})
