package permission_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/sekreterlik/sekreterlik/internal"
	permissionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/permission"
	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/internal/permission"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

type mockRepository struct {
	rows     map[string][]string
	err      error
	replaced int
}

func newMockRepository() *mockRepository {
	return &mockRepository{rows: map[string][]string{
		"STK Birim Başkanı": {"manage_stk", "add_stk"},
		"Saha Sorumlusu":    {"view_members"},
	}}
}

func (m *mockRepository) GetAll(_ context.Context) ([]*permissionDatamodel.PositionPermission, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*permissionDatamodel.PositionPermission
	for pos, keys := range m.rows {
		out = append(out, permission.ToDataModel(pos, keys)...)
	}
	return out, nil
}

func (m *mockRepository) GetByPosition(_ context.Context, position string) ([]*permissionDatamodel.PositionPermission, error) {
	if m.err != nil {
		return nil, m.err
	}
	return permission.ToDataModel(position, m.rows[position]), nil
}

func (m *mockRepository) ReplaceForPosition(_ context.Context, position string, rows []*permissionDatamodel.PositionPermission) error {
	if m.err != nil {
		return m.err
	}
	m.replaced++
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Permission
	}
	m.rows[position] = keys
	return nil
}

var _ = Describe("Permission Service", func() {
	var (
		repo    *mockRepository
		bus     *recordingBus
		service *permission.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		bus = &recordingBus{}
		service = permission.NewService(repo, bus, logger.Discard())
	})

	Describe("GetAll", func() {
		It("should group keys by position", func() {
			reg, err := service.GetAll(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(reg).To(HaveLen(2))
			Expect(reg["STK Birim Başkanı"]).To(ConsistOf("manage_stk", "add_stk"))
			Expect(reg.Positions()).To(Equal([]string{"STK Birim Başkanı", "Saha Sorumlusu"}))
		})

		It("should return an internal error when the repository fails", func() {
			repo.err = errors.New("db down")

			_, err := service.GetAll(ctx)

			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(appErrors.ErrorTypeInternal))
		})
	})

	Describe("GetForPosition", func() {
		It("should return an empty list for an unknown position", func() {
			keys, err := service.GetForPosition(ctx, "Yeni Görev")

			Expect(err).NotTo(HaveOccurred())
			Expect(keys).NotTo(BeNil())
			Expect(keys).To(BeEmpty())
		})

		It("should reject a blank position", func() {
			_, err := service.GetForPosition(ctx, "   ")

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SetForPosition", func() {
		It("should replace rather than merge", func() {
			// Given
			pos := "STK Birim Başkanı"

			// When
			keys, err := service.SetForPosition(ctx, pos, []string{"view_reports", "view_reports", "add_member"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(Equal([]string{"view_reports", "add_member"}))
			got, err := service.GetForPosition(ctx, pos)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(ConsistOf("view_reports", "add_member"))
		})

		It("should publish permissions.updated", func() {
			_, err := service.SetForPosition(ctx, "Saha Sorumlusu", []string{"add_event"})
			Expect(err).NotTo(HaveOccurred())

			published := bus.published()
			Expect(published).To(HaveLen(1))
			ev, ok := published[0].(*events.PermissionsUpdatedEvent)
			Expect(ok).To(BeTrue())
			Expect(ev.EventType()).To(Equal(events.EventTypePermissionsUpdated))
			Expect(ev.Position).To(Equal("Saha Sorumlusu"))
			Expect(ev.Permissions).To(Equal([]string{"add_event"}))
		})

		It("should allow clearing a position", func() {
			keys, err := service.SetForPosition(ctx, "Saha Sorumlusu", []string{})

			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(BeEmpty())
			Expect(repo.rows["Saha Sorumlusu"]).To(BeEmpty())
		})

		It("should reject unknown keys without writing", func() {
			_, err := service.SetForPosition(ctx, "Saha Sorumlusu", []string{"view_members", "fly"})

			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeUnknownPermission))
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring(`"fly"`))
			Expect(repo.replaced).To(Equal(0))
			Expect(bus.published()).To(BeEmpty())
		})
	})

	Describe("GrantsFor", func() {
		It("should resolve the grants of a position", func() {
			g := service.GrantsFor(ctx, "STK Birim Başkanı")

			Expect(g.HasAny(rbac.ManageSTK)).To(BeTrue())
			Expect(g.HasAny(rbac.AddMember)).To(BeFalse())
		})

		It("should grant nothing when the registry cannot be read", func() {
			repo.err = errors.New("db down")

			Expect(service.GrantsFor(ctx, "STK Birim Başkanı")).To(BeEmpty())
		})

		It("should grant nothing without a position", func() {
			Expect(service.GrantsFor(ctx, "")).To(BeEmpty())
		})
	})
})
