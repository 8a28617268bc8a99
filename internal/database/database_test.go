package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/presenton/core/internal/config"
	"github.com/presenton/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "presenton.db")
	cfg, err := config.Parse([]byte("env: production\ndatabase:\n  driver: sqlite\n  path: " + path + "\n"))
	require.NoError(t, err)

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	_, err = os.Stat(path)
	require.NoError(t, err)

	p := &models.PresentationModel{
		NSlides:   4,
		Language:  "English",
		FilePaths: models.StringArray{"a.md"},
	}
	require.NoError(t, db.WithContext(context.Background()).Create(p).Error)
	assert.NotEmpty(t, p.ID)

	var got models.PresentationModel
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, models.StringArray{"a.md"}, got.FilePaths)
	assert.Nil(t, got.Outlines)
	assert.Nil(t, got.Title)
}
