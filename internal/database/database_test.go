package database

import (
	"path/filepath"
	"testing"

	"github.com/bitfantasy/nimo-hq/internal/config"
	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "hq.db")}

	db, err := Open(cfg, "error")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(db))
	require.NoError(t, Ping(db))

	for _, table := range []interface{}{&entity.Requisition{}, &entity.RequisitionItem{}, &entity.AuditLog{}, &entity.Branch{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	// 单号唯一约束翻译为 ErrDuplicatedKey
	require.NoError(t, db.Create(&entity.Branch{ID: "b1", Code: "BJ01", Name: "北京一店"}).Error)
	err = db.Create(&entity.Branch{ID: "b2", Code: "BJ01", Name: "重复"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, "info")
	assert.Error(t, err)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
	assert.Equal(t, logger.Silent, gormLogLevel(""))
}
