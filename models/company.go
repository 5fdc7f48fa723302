package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a restaurant tenant. Its code is the only key exposed to
// applicants.
type Company struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Code         string    `gorm:"column:company_code;size:8;uniqueIndex;not null" json:"company_code"`
	Address      string    `gorm:"type:text" json:"address"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Email        string    `json:"email"`
	CuisineType  string    `gorm:"size:100" json:"cuisine_type"`
	MaxEmployees int       `gorm:"default:50" json:"max_employees"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	return nil
}
