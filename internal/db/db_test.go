package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lab-inventory-backend/config"
	"lab-inventory-backend/internal/model"
)

func TestInit_SQLiteMigrates(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:db_init_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	gormDB, err := Init(cfg, nil)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	assert.True(t, gormDB.Migrator().HasTable(&model.Reservation{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.HistoryEvent{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.Loan{}))
}

func TestInit_RejectsUnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)

	_, err = Init(&config.DatabaseConfig{Driver: "sqlite"}, nil)
	assert.Error(t, err)
}
