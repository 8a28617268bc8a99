package pagination

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/presenton/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 50
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext reads ?page= and ?size=, clamping both to valid ranges.
func FromContext(c *gin.Context) Query {
	return Normalize(Query{
		Page: parseIntOr(c.Query("page"), DefaultPage),
		Size: parseIntOr(c.Query("size"), DefaultSize),
	})
}

func Normalize(q Query) Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	return q
}

func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// Paginate counts the rows matched by db and loads one page of them.
// db should carry its filters and ordering already.
func Paginate[T any](ctx context.Context, db *gorm.DB, q Query) ([]T, response.Pagination, error) {
	q = Normalize(q)
	db = db.WithContext(ctx)

	var total int64
	var model T
	if err := db.Model(&model).Count(&total).Error; err != nil {
		return nil, response.Pagination{}, err
	}

	items := make([]T, 0, q.Size)
	if err := db.Offset(q.Offset()).Limit(q.Size).Find(&items).Error; err != nil {
		return nil, response.Pagination{}, err
	}

	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return items, response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
