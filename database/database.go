package database

import (
	"errors"
	"fmt"

	"codewhisperer/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the postgres connection and migrates the models
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Team{},
		&models.Question{},
		&models.TestCase{},
		&models.Submission{},
		&models.LeaderboardEntry{},
	)
}

// Populate creates the teams named by the account list when they are missing
func Populate(db *gorm.DB, accounts []models.Account) error {
	for _, account := range accounts {
		if account.TeamName == "" {
			continue
		}
		var team models.Team
		err := db.Where("name = ?", account.TeamName).First(&team).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up team %s: %w", account.TeamName, err)
		}

		team = models.Team{Name: account.TeamName}
		if err := db.Create(&team).Error; err != nil {
			return fmt.Errorf("failed to create team %s: %w", account.TeamName, err)
		}
		logrus.WithField("team", team.Name).Info("Default team created")
	}
	return nil
}
