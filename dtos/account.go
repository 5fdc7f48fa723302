package dtos

import "github.com/google/uuid"

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateAccountRequest provisions an account directly, outside the
// registration workflow. CompanyID is only honoured for superusers; other
// creators always provision into their own company.
type CreateAccountRequest struct {
	CompanyID *uuid.UUID `json:"company_id"`
	Email     string     `json:"email" validate:"required,email,max=254"`
	FirstName string     `json:"first_name" validate:"required,max=150"`
	LastName  string     `json:"last_name" validate:"required,max=150"`
	Phone     string     `json:"phone" validate:"omitempty,max=20"`
	Role      string     `json:"role" validate:"omitempty,oneof=employee shift_supervisor manager owner"`
	Function  string     `json:"function" validate:"required,oneof=server kitchen bartender host cleaner delivery manager"`
	Password  string     `json:"password" validate:"required"`
}

// ProfileUpdate carries the self-service editable fields. Nil means unchanged.
type ProfileUpdate struct {
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}
