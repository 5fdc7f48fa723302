package services

import (
	"time"

	"gorm.io/gorm"

	"roster-backend/models"
)

// AccessPolicy decides what a viewer may see and how directly created
// accounts are approved.
type AccessPolicy struct{}

// AccountScope narrows a users query to what viewer may see: superusers see
// everything, managers their own company, everyone else only themselves.
// A missing or inactive viewer sees nothing.
func (AccessPolicy) AccountScope(viewer *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case viewer == nil || !viewer.IsActive:
			return db.Where("1 = 0")
		case viewer.IsSuperuser:
			return db
		case viewer.IsManagerOrAbove():
			return db.Where("users.company_id = ?", viewer.CompanyID)
		default:
			return db.Where("users.id = ?", viewer.ID)
		}
	}
}

// RegistrationScope narrows a registration_requests query. Ordinary
// accounts own no requests, so they see none.
func (AccessPolicy) RegistrationScope(viewer *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case viewer == nil || !viewer.IsActive:
			return db.Where("1 = 0")
		case viewer.IsSuperuser:
			return db
		case viewer.IsManagerOrAbove():
			return db.Where("registration_requests.company_id = ?", viewer.CompanyID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// CanProvision reports whether creator may create accounts directly. An
// unapproved manager may not, or it could approve itself into power.
func (AccessPolicy) CanProvision(creator *models.User) bool {
	if creator == nil || !creator.IsActive {
		return false
	}
	return creator.IsSuperuser || creator.CanApproveRequests()
}

// ApplyAutoApproval marks an account created directly by a manager-or-above
// (or a superuser) as approved by that creator.
func (AccessPolicy) ApplyAutoApproval(creator, account *models.User, now time.Time) {
	if creator == nil || !(creator.IsSuperuser || creator.IsManagerOrAbove()) {
		return
	}
	creatorID := creator.ID
	account.IsApproved = true
	account.ApprovedByID = &creatorID
	account.ApprovedAt = &now
}
