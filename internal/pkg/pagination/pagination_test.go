package pagination

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type row struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Query
	}{
		{"", Query{Page: 1, Size: 10}},
		{"?page=3&size=5", Query{Page: 3, Size: 5}},
		{"?page=0&size=-1", Query{Page: 1, Size: 10}},
		{"?page=abc&size=500", Query{Page: 1, Size: MaxSize}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/presentations"+tt.query, nil)
		assert.Equal(t, tt.want, FromContext(c), tt.query)
	}
}

func TestPaginate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "page.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	for i := 1; i <= 7; i++ {
		require.NoError(t, db.Create(&row{Name: fmt.Sprintf("r%d", i)}).Error)
	}
	ctx := context.Background()

	items, page, err := Paginate[row](ctx, db.Order("id asc"), Query{Page: 2, Size: 3})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "r4", items[0].Name)
	assert.EqualValues(t, 7, page.Total)
	assert.Equal(t, 3, page.TotalPage)
	assert.True(t, page.HasNextPage)

	items, page, err = Paginate[row](ctx, db.Order("id asc"), Query{Page: 3, Size: 3})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.False(t, page.HasNextPage)

	items, page, err = Paginate[row](ctx, db.Where("name = ?", "none"), Query{Page: 1, Size: 3})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Zero(t, page.TotalPage)
}
