package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"roster-backend/dtos"
	"roster-backend/models"
	"roster-backend/services"
	"roster-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RegistrationHandler struct {
	Tenants       *services.TenantDirectory
	Accounts      *services.IdentityStore
	Registrations *services.RegistrationWorkflow
	Log           logrus.FieldLogger
}

func (h *RegistrationHandler) LookupCompany(c *gin.Context) {
	var req dtos.CompanyLookupRequest
	if !bindJSON(c, &req) {
		return
	}
	if fields := utils.FieldErrors(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": fields})
		return
	}

	company, err := h.Tenants.Lookup(c.Request.Context(), req.CompanyCode)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Company code not found. Check the code with your manager.",
		})
		return
	}
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"company": companyLookupJSON(company),
		"message": fmt.Sprintf("Company found: %s", company.Name),
	})
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dtos.RegistrationSubmission
	if !bindJSON(c, &req) {
		return
	}

	registration, err := h.Registrations.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"message":         "Registration request sent! Check your email to confirm your address.",
		"next_step":       "email_verification",
		"registration_id": registration.ID,
	})
}

func (h *RegistrationHandler) VerifyEmail(c *gin.Context) {
	registration, err := h.Registrations.Verify(c.Request.Context(), c.Param("token"))
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Invalid or expired verification link."})
		return
	}
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Email address confirmed. A manager will review your registration.",
		"applicant_name": registration.ApplicantName(),
		"company_name":   registration.Company.Name,
	})
}

func (h *RegistrationHandler) PendingRegistrations(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}

	pending, err := h.Registrations.ListPending(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, registrationsJSON(pending))
}

// ListRegistrations returns the decided and pending history the caller may see.
func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}

	requests, err := h.Registrations.List(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, registrationsJSON(requests))
}

func (h *RegistrationHandler) ApproveRegistration(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}
	if !user.CanApproveRequests() {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": msgForbidden})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// An unreadable body is only reported once the request is known to be
	// decidable, so other tenants' ids still read as missing.
	var req dtos.RegistrationDecision
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		if _, err := h.Registrations.Reviewable(c.Request.Context(), user, id); err != nil {
			h.decisionError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"errors":  gin.H{services.NonFieldErrors: []string{utils.SanitizeValidationError(bindErr)}},
		})
		return
	}

	decision, err := h.Registrations.Decide(c.Request.Context(), user, id, req)
	if err != nil {
		h.decisionError(c, err)
		return
	}

	name := decision.Request.ApplicantName()
	if decision.Request.Status == models.StatusRejected {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Registration of %s rejected.", name),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         fmt.Sprintf("Registration of %s approved! Account created.", name),
		"new_user_id":     decision.Account.ID,
		"username":        decision.Account.Username,
		"employee_number": decision.Account.EmployeeNumber,
	})
}

func (h *RegistrationHandler) decisionError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Registration request not found or already processed."})
		return
	}
	respondError(c, h.Log, err)
}
