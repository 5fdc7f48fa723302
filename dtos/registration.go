package dtos

// CompanyLookupRequest is the body of the public company lookup.
type CompanyLookupRequest struct {
	CompanyCode string `json:"company_code" validate:"required,min=4,max=8"`
}

// RegistrationSubmission is what an applicant sends to join a company.
type RegistrationSubmission struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	FirstName       string `json:"first_name" validate:"required,max=150"`
	LastName        string `json:"last_name" validate:"required,max=150"`
	Phone           string `json:"phone" validate:"required,max=20"`
	Function        string `json:"function" validate:"required,oneof=server kitchen bartender host cleaner delivery manager"`
	CompanyCode     string `json:"company_code" validate:"required,min=4,max=8"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// RegistrationDecision is a manager's verdict on a pending request.
// RejectionReason is required when Status is rejected.
type RegistrationDecision struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejection_reason" validate:"max=2000"`
}
