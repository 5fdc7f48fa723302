package handlers

import (
	"net/http"

	"roster-backend/dtos"
	"roster-backend/services"
	"roster-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CompanyHandler is the superuser's tenant administration.
type CompanyHandler struct {
	Tenants *services.TenantDirectory
	Log     logrus.FieldLogger
}

func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	companies, err := h.Tenants.ListWithHeadcount(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	out := make([]gin.H, 0, len(companies))
	for _, company := range companies {
		out = append(out, companyJSON(company))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req dtos.CreateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.Tenants.CreateCompany(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, companyJSON(services.CompanyHeadcount{Company: *company}))
}

func (h *CompanyHandler) SetCompanyActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dtos.CompanyActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if fields := utils.FieldErrors(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": fields})
		return
	}

	company, err := h.Tenants.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, companyJSON(services.CompanyHeadcount{Company: *company}))
}
