package services

import (
	"testing"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Participant{},
		&models.Question{},
		&models.Option{},
		&models.Vote{},
		&models.VoteSelection{},
		&models.ConfigEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedParticipant(t *testing.T, db *gorm.DB, code string, coefficient float64, present bool) *models.Participant {
	t.Helper()

	p := &models.Participant{
		Code:        code,
		Name:        "Participant " + code,
		Coefficient: coefficient,
		Present:     present,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to seed participant %s: %v", code, err)
	}
	return p
}

func seedQuestion(t *testing.T, db *gorm.DB, svc *QuestionService, input QuestionInput) *models.Question {
	t.Helper()

	q, err := svc.Create(input)
	if err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}
	return q
}
