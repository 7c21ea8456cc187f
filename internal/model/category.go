package model

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#F97316"

type Category struct {
	ID     int64  `json:"id"      db:"id"`
	UserID int64  `json:"user_id" db:"user_id"`
	Name   string `json:"nome"    db:"nome"`
	Color  string `json:"cor"     db:"cor"`
}

type CreateCategoryInput struct {
	Name  string `json:"nome"`
	Color string `json:"cor"`
}

// UpdateCategoryInput leaves nil fields untouched.
type UpdateCategoryInput struct {
	Name  *string `json:"nome"`
	Color *string `json:"cor"`
}
