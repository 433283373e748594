package permission_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sekreterlik/sekreterlik/internal/permission"
	permissionPostgres "github.com/sekreterlik/sekreterlik/internal/permission/postgres"
	"github.com/sekreterlik/sekreterlik/internal/transport"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var _ = Describe("Permission Client", func() {
	var (
		server *httptest.Server
		client *permission.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		lg := logger.Discard()
		service := permission.NewService(permissionPostgres.NewPermissionRepository(openDB()), nil, lg)
		server = httptest.NewServer(newRouter(permission.NewHandler(transport.NewBaseHandler(lg), service)))
		DeferCleanup(server.Close)
		client = permission.NewClient(server.URL, permission.WithClientLogger(lg))
	})

	It("should round-trip a replacement through the server", func() {
		pos := "Saha Sorumlusu"
		Expect(client.SetPermissionsForPosition(ctx, pos, []string{"add_member", "view_members"})).To(Succeed())
		Expect(client.SetPermissionsForPosition(ctx, pos, []string{"view_reports", "add_event"})).To(Succeed())

		Expect(client.GetPermissionsForPosition(ctx, pos)).To(ConsistOf("view_reports", "add_event"))
		Expect(client.GetAllPermissions(ctx)).To(HaveKeyWithValue(pos, ConsistOf("view_reports", "add_event")))
	})

	It("should read and write a position with escape-like characters under its own name", func() {
		for _, pos := range []string{"Sorumlu %41", "Gençlik/Kadın Kolları", "available"} {
			Expect(client.SetPermissionsForPosition(ctx, pos, []string{"add_stk"})).To(Succeed(), pos)
			Expect(client.GetPermissionsForPosition(ctx, pos)).To(Equal([]string{"add_stk"}), pos)
		}

		Expect(client.GetAllPermissions(ctx)).To(Equal(permission.Registry{
			"Sorumlu %41":           {"add_stk"},
			"Gençlik/Kadın Kolları": {"add_stk"},
			"available":             {"add_stk"},
		}))
	})

	It("should surface the server message when a write is rejected", func() {
		err := client.SetPermissionsForPosition(ctx, "Saha Sorumlusu", []string{"fly"})

		var reqErr *permission.RequestError
		Expect(err).To(BeAssignableToTypeOf(reqErr))
		Expect(err.Error()).To(ContainSubstring(`unknown permission "fly"`))
	})

	Context("when the server fails", func() {
		BeforeEach(func() {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}))
			DeferCleanup(failing.Close)
			client = permission.NewClient(failing.URL, permission.WithClientLogger(logger.Discard()))
		})

		It("should swallow read errors into empty results", func() {
			reg := client.GetAllPermissions(ctx)
			Expect(reg).NotTo(BeNil())
			Expect(reg).To(BeEmpty())

			keys := client.GetPermissionsForPosition(ctx, "Saha Sorumlusu")
			Expect(keys).NotTo(BeNil())
			Expect(keys).To(BeEmpty())
		})

		It("should return an error on write", func() {
			Expect(client.SetPermissionsForPosition(ctx, "Saha Sorumlusu", nil)).NotTo(Succeed())
		})
	})

	It("should not follow guard redirects", func() {
		redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		}))
		DeferCleanup(redirecting.Close)
		c := permission.NewClient(redirecting.URL, permission.WithClientLogger(logger.Discard()))

		err := c.SetPermissionsForPosition(ctx, "Saha Sorumlusu", []string{})
		Expect(err).To(MatchError(ContainSubstring("redirected to /login")))
	})
})
