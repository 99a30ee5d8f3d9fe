package sql

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

var errNotInitialised = fmt.Errorf("repository not initialised")

func (r *GormRepository) ready() error {
	if r == nil || r.db == nil {
		return errNotInitialised
	}
	return nil
}

func (r *GormRepository) dialect() string {
	if r == nil || r.db == nil || r.db.Dialector == nil {
		return ""
	}
	return strings.ToLower(r.db.Dialector.Name())
}

// textColumn JSON 列在 postgres 下需要转换为 text 才能 LIKE
func (r *GormRepository) textColumn(column string) string {
	if r.dialect() == "postgres" {
		return column + "::text"
	}
	return column
}

// likeEscape 与 likePattern 配套的转义子句
const likeEscape = "ESCAPE '!'"

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern 搜索词中的 % 和 _ 按字面匹配，需配合 likeEscape 使用
func likePattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(term)) + "%"
}

// orderClause 只允许白名单中的排序字段
func orderClause(sortBy string, desc bool, allowed map[string]string, fallback string) string {
	column, ok := allowed[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		return fallback
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, id DESC", column, direction)
}
