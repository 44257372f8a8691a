package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"exppro-backend/internal/config"
	"exppro-backend/internal/db"
	"exppro-backend/internal/model"
	"exppro-backend/internal/testutil"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := config.DBConfig{
		Driver: "sqlite",
		File:   filepath.Join(t.TempDir(), "exppro.db"),
		Pool:   config.DBPoolConfig{MaxOpenConns: 1},
	}
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Migrate(gdb), "migrations are repeatable")

	for _, m := range model.All() {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(config.DBConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, `unsupported DB driver "oracle"`)
}

func TestSQLiteForeignKeysCascade(t *testing.T) {
	gdb := testutil.NewDB(t)
	exp := testutil.CreateExperiment(t, gdb, "Study")
	video := testutil.CreateVideo(t, gdb, exp.ID, "One", 1)
	testutil.CreateFootnote(t, gdb, video.ID, "note", 1)

	require.NoError(t, gdb.Delete(&model.Experiment{}, exp.ID).Error)

	var videos, footnotes int64
	require.NoError(t, gdb.Model(&model.Video{}).Count(&videos).Error)
	require.NoError(t, gdb.Model(&model.Footnote{}).Count(&footnotes).Error)
	assert.Zero(t, videos)
	assert.Zero(t, footnotes)

	err := gdb.Create(&model.Video{ExperimentID: 999, Title: "orphan", File: "videos/x.mp4", Order: 1}).Error
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
}

func TestQueryExecutor(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	exec := db.NewQueryExecutor(gdb)
	exp := testutil.CreateExperiment(t, gdb, "Study")

	ok, err := exec.Exists(ctx, &model.Experiment{}, exp.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = exec.Exists(ctx, &model.Experiment{}, exp.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = exec.Exists(ctx, &model.Experiment{}, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := exec.Count(ctx, &model.Experiment{}, map[string]interface{}{"title": "Study"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	boom := errors.New("boom")
	err = exec.Transaction(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&model.Experiment{Title: "rolled back"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err = exec.Count(ctx, &model.Experiment{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
