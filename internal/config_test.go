package internal_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sekreterlik/sekreterlik/internal"
)

const secret = "0123456789abcdef0123456789abcdef"

func validConfig() internal.Config {
	return internal.Config{
		Server: internal.ServerConfig{Port: 8080, ReadHeaderTimeout: 5 * time.Second, ReadTimeout: 15 * time.Second},
		Database: internal.DatabaseConfig{
			Source:       "postgres://localhost/sekreterlik",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Security: internal.SecurityConfig{
			SessionSecret: secret,
			SessionTTL:    time.Hour,
			CookieName:    "sekreterlik_session",
			BCryptCost:    10,
		},
		Dashboard:     internal.DashboardConfig{UnlistedViewPolicy: "allow", ErrorTTL: 3 * time.Second},
		Observability: internal.ObservabilityConfig{Logging: internal.LoggingConfig{Level: "info", Format: "json"}},
	}
}

var _ = Describe("Config", func() {
	Describe("LoadConfigFromEnv", func() {
		It("should read prefixed variables and apply defaults", func() {
			GinkgoT().Setenv("DB_SOURCE", "postgres://db/sekreterlik")
			GinkgoT().Setenv("SECURITY_SESSION_SECRET", secret)
			GinkgoT().Setenv("HTTP_PORT", "9090")
			GinkgoT().Setenv("REDIS_ADDR", "redis:6379")
			GinkgoT().Setenv("AUTH_USE_REMOTE_IDENTITY", "true")
			GinkgoT().Setenv("AUTH_OIDC_ISSUER", "https://securetoken.google.com/sekreterlik")
			GinkgoT().Setenv("AUTH_OIDC_CLIENT_ID", "sekreterlik")
			GinkgoT().Setenv("OBSERVABILITY_LOG_LEVEL", "debug")

			cfg, err := internal.LoadConfigFromEnv()

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Port).To(Equal(9090))
			Expect(cfg.Database.Source).To(Equal("postgres://db/sekreterlik"))
			Expect(cfg.Redis.Addr).To(Equal("redis:6379"))
			Expect(cfg.Redis.KeyPrefix).To(Equal("sekreterlik:session:"))
			Expect(cfg.Security.SessionTTL).To(Equal(12 * time.Hour))
			Expect(cfg.Security.CookieName).To(Equal("sekreterlik_session"))
			Expect(cfg.Auth.UseRemoteIdentity).To(BeTrue())
			Expect(cfg.Dashboard.UnlistedViewPolicy).To(Equal("allow"))
			Expect(cfg.Dashboard.ErrorTTL).To(Equal(3 * time.Second))
			Expect(cfg.Observability.Logging.Level).To(Equal("debug"))
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should fail without a database source", func() {
			// Setenv restores the variable after the test
			GinkgoT().Setenv("DB_SOURCE", "unused")
			Expect(os.Unsetenv("DB_SOURCE")).To(Succeed())
			GinkgoT().Setenv("SECURITY_SESSION_SECRET", secret)

			_, err := internal.LoadConfigFromEnv()

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		It("should accept a complete configuration", func() {
			cfg := validConfig()
			Expect(cfg.Validate()).To(Succeed())
		})

		DescribeTable("should reject",
			func(mutate func(*internal.Config), message string) {
				cfg := validConfig()
				mutate(&cfg)

				err := cfg.Validate()

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(message))
			},
			Entry("a short session secret", func(c *internal.Config) { c.Security.SessionSecret = "short" }, "at least 32 characters"),
			Entry("a bcrypt cost out of range", func(c *internal.Config) { c.Security.BCryptCost = 40 }, "bcrypt_cost"),
			Entry("more idle than open connections", func(c *internal.Config) { c.Database.MaxIdleConns = 20 }, "max_idle_conns"),
			Entry("remote identity without issuer", func(c *internal.Config) { c.Auth.UseRemoteIdentity = true }, "oidc_issuer"),
			Entry("an unknown view policy", func(c *internal.Config) { c.Dashboard.UnlistedViewPolicy = "maybe" }, "unlisted_view_policy"),
			Entry("a zero error ttl", func(c *internal.Config) { c.Dashboard.ErrorTTL = 0 }, "error_ttl"),
			Entry("an unknown log format", func(c *internal.Config) { c.Observability.Logging.Format = "xml" }, "invalid format"),
			Entry("read timeout below header timeout", func(c *internal.Config) { c.Server.ReadTimeout = time.Second }, "read_timeout"),
		)
	})
})
