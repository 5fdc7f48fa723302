package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RoleEmployee        = "employee"
	RoleShiftSupervisor = "shift_supervisor"
	RoleManager         = "manager"
	RoleOwner           = "owner"
)

const (
	FunctionServer    = "server"
	FunctionKitchen   = "kitchen"
	FunctionBartender = "bartender"
	FunctionHost      = "host"
	FunctionCleaner   = "cleaner"
	FunctionDelivery  = "delivery"
	FunctionManager   = "manager"
)

var roleLabels = map[string]string{
	RoleEmployee:        "Employee",
	RoleShiftSupervisor: "Shift supervisor",
	RoleManager:         "Manager",
	RoleOwner:           "Owner",
}

var functionLabels = map[string]string{
	FunctionServer:    "Server",
	FunctionKitchen:   "Kitchen",
	FunctionBartender: "Bartender",
	FunctionHost:      "Host",
	FunctionCleaner:   "Cleaner",
	FunctionDelivery:  "Delivery",
	FunctionManager:   "Manager",
}

func ValidRole(role string) bool {
	_, ok := roleLabels[role]
	return ok
}

func ValidFunction(function string) bool {
	_, ok := functionLabels[function]
	return ok
}

func RoleLabel(role string) string {
	return roleLabels[role]
}

func FunctionLabel(function string) string {
	return functionLabels[function]
}

// RoleForFunction maps the function an applicant chose to the role their
// account receives on approval.
func RoleForFunction(function string) string {
	if function == FunctionManager {
		return RoleManager
	}
	return RoleEmployee
}

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	Company        Company    `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	Username       string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"not null" json:"-"`
	FirstName      string     `gorm:"size:150" json:"first_name"`
	LastName       string     `gorm:"size:150" json:"last_name"`
	Phone          string     `gorm:"size:15" json:"phone"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Role           string     `gorm:"size:20;not null;default:'employee'" json:"role"`
	Function       string     `gorm:"size:20;not null" json:"function"`
	EmployeeNumber string     `gorm:"size:20;uniqueIndex;not null" json:"employee_number"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
	HourlyRate     *float64   `json:"hourly_rate,omitempty"`
	IsApproved     bool       `gorm:"default:false" json:"is_approved"`
	ApprovedByID   *uuid.UUID `gorm:"type:uuid;index" json:"approved_by_id,omitempty"`
	ApprovedBy     *User      `gorm:"foreignKey:ApprovedByID;constraint:OnDelete:SET NULL" json:"-"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	EmailVerified  bool       `gorm:"default:false" json:"email_verified"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	IsSuperuser    bool       `gorm:"default:false" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate assigns the employee number exactly once. Updates never touch
// it again.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.EmployeeNumber == "" {
		number, err := NextEmployeeNumber(tx, u.CompanyID)
		if err != nil {
			return err
		}
		u.EmployeeNumber = number
	}
	return nil
}

func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

func (u *User) IsManagerOrAbove() bool {
	return u.Role == RoleManager || u.Role == RoleOwner
}

// CanApproveRequests is false for managers who have not been approved
// themselves.
func (u *User) CanApproveRequests() bool {
	return u.IsManagerOrAbove() && u.IsApproved
}

// NextEmployeeNumber computes {code}-{n:04d} where n is one more than the
// number of numbered accounts in the company. The company row is locked so
// concurrent inserts in the same tenant queue up behind each other.
func NextEmployeeNumber(tx *gorm.DB, companyID uuid.UUID) (string, error) {
	db := tx.Session(&gorm.Session{NewDB: true})

	var company Company
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "company_code").
		Where("id = ?", companyID).
		First(&company).Error; err != nil {
		return "", fmt.Errorf("load company for employee number: %w", err)
	}

	var numbered int64
	if err := db.Model(&User{}).
		Where("company_id = ? AND employee_number IS NOT NULL AND employee_number <> ''", companyID).
		Count(&numbered).Error; err != nil {
		return "", fmt.Errorf("count employee numbers: %w", err)
	}

	return FormatEmployeeNumber(company.Code, int(numbered)+1), nil
}

func FormatEmployeeNumber(companyCode string, sequence int) string {
	return fmt.Sprintf("%s-%04d", companyCode, sequence)
}
