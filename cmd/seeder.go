package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/auth"
	permissionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/permission"
	positionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/position"
	userDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/user"
	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/internal/permission"
	permissionPostgres "github.com/sekreterlik/sekreterlik/internal/permission/postgres"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var (
	seedClear    bool
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with accounts, positions and default position permissions for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if err := seed(cmd.Context(), gormDB, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

type seedUser struct {
	Username string
	Name     string
	Role     rbac.Role
	Position string
	MemberID int64
	TownID   int64
}

var seedUsers = []seedUser{
	{Username: "admin", Name: "İlçe Sekreteri", Role: rbac.RoleAdmin},
	{Username: "ayse", Name: "Ayşe Yılmaz", Role: rbac.RoleMember, Position: "STK Birim Başkanı", MemberID: 1},
	{Username: "veli", Name: "Veli Demir", Role: rbac.RoleMember, Position: "Saha Sorumlusu", MemberID: 2},
	{Username: "ilce", Name: "Hasan Kaya", Role: rbac.RoleDistrictPresident},
	{Username: "belde", Name: "Mehmet Çelik", Role: rbac.RoleTownPresident, TownID: 1},
}

var seedPositions = []struct {
	Name        string
	Description string
	Permissions []rbac.Permission
}{
	{"STK Birim Başkanı", "Sivil toplum kuruluşları birimi", []rbac.Permission{rbac.AddSTK, rbac.ManageSTK, rbac.ViewEvents, rbac.AddEvent}},
	{"Saha Sorumlusu", "Mahalle ve köy saha çalışmaları", []rbac.Permission{rbac.ViewMembers, rbac.ManageNeighborhoods, rbac.ManageVillages}},
	{"Teşkilat Başkanı", "Üye ve toplantı işleri", []rbac.Permission{rbac.AddMember, rbac.EditMember, rbac.ViewMembers, rbac.AddMeeting, rbac.ViewMeetings, rbac.TakeAttendance}},
	{"Seçim İşleri Başkanı", "Sandık ve müşahit işleri", []rbac.Permission{rbac.AccessBallotBoxes, rbac.ManageObservers, rbac.ManageRepresentatives, rbac.ManageElections}},
}

func seed(ctx context.Context, db *gorm.DB, cfg *internal.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	if seedClear {
		for _, table := range []string{"position_permissions", "positions", "users"} {
			if err := db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		fmt.Println("Cleared users, positions and position permissions")
	}

	hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
	if err != nil {
		return err
	}

	for _, u := range seedUsers {
		u := u
		row := &userDatamodel.User{
			Username:     u.Username,
			Name:         u.Name,
			PasswordHash: hash,
			Role:         string(u.Role),
			Position:     u.Position,
			IsActive:     true,
		}
		if u.MemberID != 0 {
			row.MemberID = &u.MemberID
		}
		if u.TownID != 0 {
			row.TownID = &u.TownID
		}
		res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, res.Error)
		}
		if res.RowsAffected == 0 {
			fmt.Printf("user %s already exists\n", u.Username)
			continue
		}
		fmt.Printf("Seeded user: %s (%s)\n", u.Username, u.Role)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)
	permissions := permission.NewService(permissionPostgres.NewPermissionRepository(db), bus, lg)

	for _, p := range seedPositions {
		row := &positionDatamodel.Position{Name: p.Name, Description: p.Description, IsActive: true}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return fmt.Errorf("insert position %s: %w", p.Name, err)
		}

		var existing int64
		if err := db.WithContext(ctx).Model(&permissionDatamodel.PositionPermission{}).
			Where("position = ?", p.Name).Count(&existing).Error; err != nil {
			return fmt.Errorf("count permissions of %s: %w", p.Name, err)
		}
		if existing > 0 && !seedClear {
			fmt.Printf("position %s already has permissions\n", p.Name)
			continue
		}

		keys := make([]string, len(p.Permissions))
		for i, perm := range p.Permissions {
			keys[i] = string(perm)
		}
		if _, err := permissions.SetForPosition(ctx, p.Name, keys); err != nil {
			return fmt.Errorf("set permissions of %s: %w", p.Name, err)
		}
		fmt.Printf("Seeded position: %s (%d permissions)\n", p.Name, len(keys))
	}

	if err := bus.Wait(ctx); err != nil {
		return fmt.Errorf("flush audit log: %w", err)
	}
	fmt.Println("Seed completed")
	return nil
}

func init() {
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "delete existing users, positions and permissions first")
	seedCmd.Flags().StringVar(&seedPassword, "password", "parola123", "password of every seeded account")
}
