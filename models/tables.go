package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	ID          string                      `gorm:"primaryKey" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"type:text;not null;default:''" json:"description"`
	Markdown    string                      `gorm:"type:text;not null" json:"markdown"`
	Images      datatypes.JSONSlice[string] `gorm:"type:json" json:"images"` // ordered; insertion order is display order
	CreatedAt   time.Time                   `json:"createdAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Page struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"` // public lookup key
	Content string `gorm:"type:text;not null" json:"content"`
	// No sql default here: gorm would swallow an explicit false on insert.
	// The API layer defaults published to true when the field is omitted.
	Published bool      `gorm:"not null" json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Setting struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text;not null" json:"value"`
}

// User exists for completeness of the data model; the login flow checks the
// configured admin credentials, not this table.
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
}
