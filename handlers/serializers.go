package handlers

import (
	"roster-backend/models"
	"roster-backend/services"

	"github.com/gin-gonic/gin"
)

func companyLookupJSON(company *models.Company) gin.H {
	return gin.H{
		"name":         company.Name,
		"company_code": company.Code,
		"address":      company.Address,
		"cuisine_type": company.CuisineType,
	}
}

func companyJSON(c services.CompanyHeadcount) gin.H {
	return gin.H{
		"id":             c.ID,
		"name":           c.Name,
		"company_code":   c.Code,
		"address":        c.Address,
		"phone":          c.Phone,
		"email":          c.Email,
		"cuisine_type":   c.CuisineType,
		"max_employees":  c.MaxEmployees,
		"employee_count": c.EmployeeCount,
		"is_active":      c.IsActive,
		"created_at":     c.CreatedAt,
	}
}

// profileJSON is what an account sees of itself.
func profileJSON(u *models.User) gin.H {
	return gin.H{
		"id":               u.ID,
		"username":         u.Username,
		"email":            u.Email,
		"first_name":       u.FirstName,
		"last_name":        u.LastName,
		"phone":            u.Phone,
		"role":             u.Role,
		"role_display":     models.RoleLabel(u.Role),
		"function":         u.Function,
		"function_display": models.FunctionLabel(u.Function),
		"employee_number":  u.EmployeeNumber,
		"company_name":     u.Company.Name,
		"is_approved":      u.IsApproved,
		"email_verified":   u.EmailVerified,
		"hire_date":        u.HireDate,
		"created_at":       u.CreatedAt,
	}
}

// accountJSON adds the administrative fields managers see in listings.
func accountJSON(u *models.User) gin.H {
	out := profileJSON(u)
	out["company_id"] = u.CompanyID
	out["is_active"] = u.IsActive
	out["approved_by_id"] = u.ApprovedByID
	out["approved_at"] = u.ApprovedAt
	return out
}

func accountsJSON(users []models.User) []gin.H {
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, accountJSON(&users[i]))
	}
	return out
}

func registrationJSON(r *models.RegistrationRequest) gin.H {
	return gin.H{
		"id":                   r.ID,
		"email":                r.Email,
		"first_name":           r.FirstName,
		"last_name":            r.LastName,
		"phone":                r.Phone,
		"function":             r.Function,
		"function_display":     models.FunctionLabel(r.Function),
		"company_name":         r.Company.Name,
		"company_code_entered": r.CompanyCodeEntered,
		"status":               r.Status,
		"email_verified":       r.EmailVerified,
		"reviewed_by_id":       r.ReviewedByID,
		"reviewed_at":          r.ReviewedAt,
		"rejection_reason":     r.RejectionReason,
		"created_at":           r.CreatedAt,
	}
}

func registrationsJSON(requests []models.RegistrationRequest) []gin.H {
	out := make([]gin.H, 0, len(requests))
	for i := range requests {
		out = append(out, registrationJSON(&requests[i]))
	}
	return out
}
