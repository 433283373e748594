package position_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	positionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/position"
	"github.com/sekreterlik/sekreterlik/internal/position"
	positionPostgres "github.com/sekreterlik/sekreterlik/internal/position/postgres"
	"github.com/sekreterlik/sekreterlik/internal/transport"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var _ = Describe("Position Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *position.Handler
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&positionDatamodel.Position{})).To(Succeed())

		repo := positionPostgres.NewPositionRepository(db)
		lg := logger.Discard()
		handler = position.NewHandler(transport.NewBaseHandler(lg), position.NewService(repo, lg))

		for _, name := range []string{"STK Birim Başkanı", "Saha Sorumlusu", "Eski Görev"} {
			Expect(db.Create(&positionDatamodel.Position{Name: name, Description: name + " görevi", IsActive: true}).Error).To(Succeed())
		}
		Expect(db.Model(&positionDatamodel.Position{}).Where("name = ?", "Eski Görev").Update("is_active", false).Error).To(Succeed())
	})

	It("should handle GET /positions request successfully", func() {
		req := httptest.NewRequest(http.MethodGet, "/positions", nil)
		w := httptest.NewRecorder()

		handler.GetPositions(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response position.PositionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

		names := make([]string, len(response.Positions))
		for i, p := range response.Positions {
			names[i] = p.Name
		}
		Expect(names).To(Equal([]string{"STK Birim Başkanı", "Saha Sorumlusu"}))
	})

	It("should create a position with POST /positions", func() {
		req := httptest.NewRequest(http.MethodPost, "/positions", strings.NewReader(`{"name":"İlçe Sekreteri","description":"yazışmalar"}`))
		w := httptest.NewRecorder()

		handler.CreatePosition(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var count int64
		Expect(db.Model(&positionDatamodel.Position{}).Where("name = ?", "İlçe Sekreteri").Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
	})

	It("should answer 409 for an existing name", func() {
		req := httptest.NewRequest(http.MethodPost, "/positions", strings.NewReader(`{"name":"Saha Sorumlusu"}`))
		w := httptest.NewRecorder()

		handler.CreatePosition(w, req)

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("POSITION_EXISTS"))
	})
})
