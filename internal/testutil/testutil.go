// Package testutil holds fixtures shared by repository, service and handler tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"edms/internal/database"
	"edms/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// UnitUIC is the unit every fixture belongs to.
const UnitUIC = "M12345"

// JWTSecret signs tokens produced by Token.
var JWTSecret = []byte("test-secret")

// SetupTestDB opens a migrated SQLite database in a per-test temp dir.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "edms.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Unit is a small roster covering every echelon of one unit.
type Unit struct {
	Owner     model.User
	Platoon   model.User
	Company   model.User
	Staff     model.User
	Commander model.User
}

// NewUnit builds the roster with fresh ids.
func NewUnit() Unit {
	return Unit{
		Owner:     model.User{ID: uuid.New(), Name: "Cpl Owner", Email: uuid.NewString() + "@example.mil", Role: model.RoleMember, UnitUIC: UnitUIC, Company: "Alpha", Platoon: "1st"},
		Platoon:   model.User{ID: uuid.New(), Name: "SSgt Platoon", Email: uuid.NewString() + "@example.mil", Role: model.RolePlatoonReviewer, UnitUIC: UnitUIC, Company: "Alpha", Platoon: "1st"},
		Company:   model.User{ID: uuid.New(), Name: "Capt Company", Email: uuid.NewString() + "@example.mil", Role: model.RoleCompanyReviewer, UnitUIC: UnitUIC, Company: "Alpha"},
		Staff:     model.User{ID: uuid.New(), Name: "Sgt Adjutant", Email: uuid.NewString() + "@example.mil", Role: model.RoleMember, UnitUIC: UnitUIC, IsUnitAdmin: true},
		Commander: model.User{ID: uuid.New(), Name: "LtCol Commander", Email: uuid.NewString() + "@example.mil", Role: model.RoleCommander, UnitUIC: UnitUIC},
	}
}

// All returns the roster in a fixed order.
func (u Unit) All() []model.User {
	return []model.User{u.Owner, u.Platoon, u.Company, u.Staff, u.Commander}
}

// Seed inserts the roster.
func (u Unit) Seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := u.All()
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("Failed to seed users: %v", err)
	}
}

// OtherUnitUIC is a unit no Unit fixture belongs to.
const OtherUnitUIC = "M99999"

// SeedOutsider inserts a unit admin of OtherUnitUIC.
func SeedOutsider(t *testing.T, db *gorm.DB) model.User {
	t.Helper()
	u := model.User{ID: uuid.New(), Name: "Maj Outsider", Email: uuid.NewString() + "@example.mil", Role: model.RoleCommander, UnitUIC: OtherUnitUIC, IsUnitAdmin: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("Failed to seed outsider: %v", err)
	}
	return u
}

// Token signs an access token for userID the way the auth middleware expects.
func Token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}
