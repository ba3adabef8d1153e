package model

// Level identifies one tier of the fixed three-level taxonomy. Each tier
// lives in its own table and points at its parent tier by id.
type Level string

const (
	LevelCategory         Level = "category"
	LevelSubCategory      Level = "sub_category"
	LevelSuperSubCategory Level = "super_sub_category"
)

var Levels = []Level{LevelCategory, LevelSubCategory, LevelSuperSubCategory}

func (l Level) Valid() bool {
	switch l {
	case LevelCategory, LevelSubCategory, LevelSuperSubCategory:
		return true
	}
	return false
}

func (l Level) Table() string {
	switch l {
	case LevelSubCategory:
		return "sub_categories"
	case LevelSuperSubCategory:
		return "super_sub_categories"
	default:
		return "categories"
	}
}

// ParentColumn is the foreign key column naming the parent tier, empty for
// top-level categories.
func (l Level) ParentColumn() string {
	switch l {
	case LevelSubCategory:
		return "category_id"
	case LevelSuperSubCategory:
		return "sub_category_id"
	default:
		return ""
	}
}

func (l Level) Parent() (Level, bool) {
	switch l {
	case LevelSubCategory:
		return LevelCategory, true
	case LevelSuperSubCategory:
		return LevelSubCategory, true
	default:
		return "", false
	}
}

func (l Level) Child() (Level, bool) {
	switch l {
	case LevelCategory:
		return LevelSubCategory, true
	case LevelSubCategory:
		return LevelSuperSubCategory, true
	default:
		return "", false
	}
}

type Category struct {
	BaseModel
	Level           Level   `db:"-" json:"level"`
	ParentID        *string `db:"parent_id" json:"parent_id,omitempty"`
	Name            string  `db:"name" json:"name"`
	Slug            string  `db:"slug" json:"slug"`
	Description     *string `db:"description" json:"description"`
	ImageURL        *string `db:"image_url" json:"image_url"`
	SortOrder       int     `db:"sort_order" json:"sort_order"`
	IsActive        bool    `db:"is_active" json:"is_active"`
	MetaTitle       *string `db:"meta_title" json:"meta_title"`
	MetaDescription *string `db:"meta_description" json:"meta_description"`
}
