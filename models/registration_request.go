package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// RegistrationRequest is one application to join a company. Decided requests
// are kept as history.
//
// The partial unique index allows at most one pending request per
// (email, company); decided rows do not count.
type RegistrationRequest struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string     `gorm:"size:254;not null;uniqueIndex:idx_registration_pending,priority:1,where:status = 'pending'" json:"email"`
	FirstName          string     `gorm:"size:150;not null" json:"first_name"`
	LastName           string     `gorm:"size:150;not null" json:"last_name"`
	Phone              string     `gorm:"size:15;not null" json:"phone"`
	Function           string     `gorm:"size:20;not null" json:"function"`
	CompanyID          uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_registration_pending,priority:2,where:status = 'pending'" json:"company_id"`
	Company            Company    `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	CompanyCodeEntered string     `gorm:"size:8;not null" json:"company_code_entered"`
	Status             string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PasswordHash       string     `json:"-"`
	VerificationToken  string     `gorm:"size:100;uniqueIndex;not null" json:"-"`
	EmailVerified      bool       `gorm:"default:false" json:"email_verified"`
	ReviewedByID       *uuid.UUID `gorm:"type:uuid;index" json:"reviewed_by_id,omitempty"`
	ReviewedBy         *User      `gorm:"foreignKey:ReviewedByID;constraint:OnDelete:SET NULL" json:"-"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason    string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r *RegistrationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

func (r *RegistrationRequest) ApplicantName() string {
	return r.FirstName + " " + r.LastName
}

func (r *RegistrationRequest) IsPending() bool {
	return r.Status == StatusPending
}
