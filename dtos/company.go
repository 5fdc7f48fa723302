package dtos

// CreateCompanyRequest registers a new tenant. When CompanyCode is empty a
// code is issued from the name.
type CreateCompanyRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	CompanyCode  string `json:"company_code" validate:"omitempty,min=4,max=8,alphanum"`
	Address      string `json:"address"`
	Phone        string `json:"phone" validate:"max=20"`
	Email        string `json:"email" validate:"omitempty,email"`
	CuisineType  string `json:"cuisine_type" validate:"max=100"`
	MaxEmployees int    `json:"max_employees" validate:"omitempty,min=1"`
}

type CompanyActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
