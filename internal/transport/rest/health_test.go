package rest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/sekreterlik/sekreterlik/internal/transport/rest"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var _ = Describe("HealthHandler", func() {
	var (
		mr  *miniredis.Miniredis
		rdb *redis.Client
		srv *httptest.Server
	)

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sqlDB.Close)

		mr = miniredis.RunT(GinkgoT())
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(rdb.Close)

		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{Health: rest.NewHealthHandler(sqlDB, rdb)}, rest.RouterOptions{}, logger.Discard())
		srv = httptest.NewServer(router)
		DeferCleanup(srv.Close)
	})

	get := func() (int, rest.HealthResponse) {
		resp, err := http.Get(srv.URL + "/api/v1/health")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		var body rest.HealthResponse
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		return resp.StatusCode, body
	}

	It("should check postgres and redis", func() {
		status, body := get()

		Expect(status).To(Equal(http.StatusOK))
		Expect(body.Components).To(HaveKey("postgres"))
		Expect(body.Components).To(HaveKey("redis"))
		Expect(body.Components).NotTo(HaveKey("sessions"))
	})

	It("should answer 503 when redis is down", func() {
		mr.Close()

		status, body := get()

		Expect(status).To(Equal(http.StatusServiceUnavailable))
		Expect(body.Status).To(Equal(rest.HealthUnhealthy))
		Expect(body.Components["redis"].Status).To(Equal(rest.HealthUnhealthy))
		Expect(body.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
	})

	It("should answer ping", func() {
		resp, err := http.Get(srv.URL + "/api/v1/ping")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
})
