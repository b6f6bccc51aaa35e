package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Password is the plain-text password of every fixture account
const Password = "password123"

// RequireTestEnvironment ensures that tests are running in the test environment.
// It will fail the test immediately if GO_ENV is set to anything other than "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "" && env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q.", env)
	}
}

// NewTestDB opens a migrated in-memory sqlite database.
// The pool is pinned to one connection so every query (and every transaction) sees the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	RequireTestEnvironment(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	return db
}

func hashPassword(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// CreateUser inserts a bare account without any profile
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: hashPassword(t), Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateClient inserts a client account with a profile and the given point balance
func CreateClient(t *testing.T, db *gorm.DB, email, fullName string, balance int) models.User {
	t.Helper()
	user := CreateUser(t, db, email, models.RoleClient)
	require.NoError(t, db.Create(&models.ClientProfile{UserID: user.ID, FullName: fullName}).Error)
	require.NoError(t, db.Create(&models.ConsultationPoint{UserID: user.ID, Balance: balance}).Error)
	return user
}

// CreateLawyer inserts a lawyer account with its profile
func CreateLawyer(t *testing.T, db *gorm.DB, email, fullName string, expertise models.Expertise, approved bool) (models.User, models.LawyerProfile) {
	t.Helper()
	user := CreateUser(t, db, email, models.RoleLawyer)
	profile := models.LawyerProfile{
		UserID:    user.ID,
		FullName:  fullName,
		Expertise: expertise,
		Location:  "Colombo",
		Approved:  approved,
	}
	require.NoError(t, db.Create(&profile).Error)
	return user, profile
}

// CreateAdmin inserts an admin account
func CreateAdmin(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	return CreateUser(t, db, email, models.RoleAdmin)
}

// CreateConsultation inserts a consultation directly, bypassing the ledger
func CreateConsultation(t *testing.T, db *gorm.DB, client, lawyer models.User, status models.ConsultationStatus) models.ConsultationRequest {
	t.Helper()
	consultation := models.ConsultationRequest{
		ClientID:      client.ID,
		LawyerID:      lawyer.ID,
		Title:         fmt.Sprintf("Consultation %s", status),
		CaseType:      "civil",
		Status:        status,
		RequestedTime: time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
	}
	require.NoError(t, db.Create(&consultation).Error)
	return consultation
}

// Balance reads a user's point balance, failing the test when the row is missing
func Balance(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var cp models.ConsultationPoint
	require.NoError(t, db.Where("user_id = ?", userID).First(&cp).Error)
	return cp.Balance
}

// Notifications returns a user's notifications oldest first
func Notifications(t *testing.T, db *gorm.DB, userID uint) []models.Notification {
	t.Helper()
	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&notifications).Error)
	return notifications
}
