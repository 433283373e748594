package permission_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/permission"
	permissionPostgres "github.com/sekreterlik/sekreterlik/internal/permission/postgres"
	"github.com/sekreterlik/sekreterlik/internal/session"
	"github.com/sekreterlik/sekreterlik/internal/transport"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

// newRouter wires the registry routes the way the server does, minus the guards.
func newRouter(h *permission.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/permissions", h.GetAll)
	r.Get("/permission-catalog", h.GetAvailable)
	r.Get("/permissions/{position}", h.GetForPosition)
	r.Post("/permissions/{position}", h.SetForPosition)
	r.Get("/members/me/permissions", h.GetMine)
	return r
}

var _ = Describe("Permission Handler Integration", func() {
	var (
		router  *chi.Mux
		service *permission.Service
		bus     *recordingBus
	)

	BeforeEach(func() {
		lg := logger.Discard()
		bus = &recordingBus{}
		service = permission.NewService(permissionPostgres.NewPermissionRepository(openDB()), bus, lg)
		router = newRouter(permission.NewHandler(transport.NewBaseHandler(lg), service))
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should replace and read back the permissions of a position", func() {
		path := "/permissions/" + url.PathEscape("STK Birim Başkanı")

		w := do(http.MethodPost, path, `{"permissions":["add_stk","manage_stk"]}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var set permission.SetPermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&set)).To(Succeed())
		Expect(set.Success).To(BeTrue())
		Expect(set.Position).To(Equal("STK Birim Başkanı"))

		w = do(http.MethodPost, path, `{"permissions":["view_reports"]}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, path, "")
		var keys []string
		Expect(json.NewDecoder(w.Body).Decode(&keys)).To(Succeed())
		Expect(keys).To(ConsistOf("view_reports"))

		w = do(http.MethodGet, "/permissions", "")
		var reg map[string][]string
		Expect(json.NewDecoder(w.Body).Decode(&reg)).To(Succeed())
		Expect(reg).To(Equal(map[string][]string{"STK Birim Başkanı": {"view_reports"}}))
		Expect(bus.published()).To(HaveLen(2))
	})

	DescribeTable("should keep free-text position names intact",
		func(position string) {
			path := "/permissions/" + url.PathEscape(position)

			w := do(http.MethodPost, path, `{"permissions":["add_stk"]}`)
			Expect(w.Code).To(Equal(http.StatusOK))

			w = do(http.MethodGet, "/permissions", "")
			var reg map[string][]string
			Expect(json.NewDecoder(w.Body).Decode(&reg)).To(Succeed())
			Expect(reg).To(Equal(map[string][]string{position: {"add_stk"}}))

			w = do(http.MethodGet, path, "")
			var keys []string
			Expect(json.NewDecoder(w.Body).Decode(&keys)).To(Succeed())
			Expect(keys).To(Equal([]string{"add_stk"}))
		},
		Entry("percent sign", "Sorumlu %41"),
		Entry("slash", "Gençlik/Kadın Kolları"),
		Entry("name shared with a route word", "available"),
	)

	It("should answer an empty array for an unknown position", func() {
		w := do(http.MethodGet, "/permissions/Bilinmeyen", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(w.Body.String())).To(Equal("[]"))
	})

	It("should reject unknown permission keys with 400", func() {
		w := do(http.MethodPost, "/permissions/Saha%20Sorumlusu", `{"permissions":["teleport"]}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("UNKNOWN_PERMISSION"))
	})

	It("should reject malformed bodies with 400", func() {
		w := do(http.MethodPost, "/permissions/Saha%20Sorumlusu", `{"perms":`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list every available permission with its label", func() {
		w := do(http.MethodGet, "/permission-catalog", "")

		var resp permission.AvailablePermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Permissions).To(HaveLen(len(service.Available())))
		for _, p := range resp.Permissions {
			Expect(p.Label).NotTo(BeEmpty(), string(p.Key))
		}
	})

	Describe("GetMine", func() {
		It("should resolve the grants of the signed in member's position", func() {
			_, err := service.SetForPosition(context.Background(), "STK Birim Başkanı", []string{"manage_stk"})
			Expect(err).NotTo(HaveOccurred())

			store := session.NewMemoryStore(time.Hour)
			Expect(store.Save(context.Background(), "s1", session.Snapshot{
				User:       `{"id":3,"role":"member","position":"STK Birim Başkanı"}`,
				IsLoggedIn: session.LoggedInFlag,
			})).To(Succeed())
			p := auth.NewProvider(auth.ProviderConfig{Mode: auth.ModeLocal, Store: store, Logger: logger.Discard()}, "s1", nil)
			p.Mount(context.Background())

			req := httptest.NewRequest(http.MethodGet, "/members/me/permissions", nil)
			req = req.WithContext(auth.WithProvider(req.Context(), p))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var resp permission.MyPermissionsResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Position).To(Equal("STK Birim Başkanı"))
			Expect(resp.Permissions).To(Equal([]string{"manage_stk"}))
		})

		It("should grant nothing to an anonymous request", func() {
			w := do(http.MethodGet, "/members/me/permissions", "")

			var resp permission.MyPermissionsResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Permissions).To(BeEmpty())
		})
	})
})
