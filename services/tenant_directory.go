package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roster-backend/dtos"
	"roster-backend/models"
	"roster-backend/utils"
)

const maxCodeSuffix = 9999

// TenantCache is an optional read-through cache for Lookup.
type TenantCache interface {
	Get(ctx context.Context, code string) (*models.Company, bool)
	Set(ctx context.Context, company *models.Company)
	Invalidate(ctx context.Context, code string)
}

type TenantDirectory struct {
	DB    *gorm.DB
	Cache TenantCache
	Log   logrus.FieldLogger
}

// CompanyHeadcount is a company with its number of active accounts.
type CompanyHeadcount struct {
	models.Company
	EmployeeCount int64 `json:"employee_count"`
}

// Lookup returns the active company with exactly this code, compared after
// upper-casing. Inactive and unknown codes are both ErrNotFound.
func (d *TenantDirectory) Lookup(ctx context.Context, code string) (*models.Company, error) {
	code = utils.NormalizeCompanyCode(code)
	if !utils.ValidCompanyCode(code) {
		return nil, ErrNotFound
	}

	if d.Cache != nil {
		if company, ok := d.Cache.Get(ctx, code); ok && company.IsActive {
			return company, nil
		}
	}

	var company models.Company
	err := d.DB.WithContext(ctx).
		Where("company_code = ? AND is_active = ?", code, true).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &InternalError{Op: "lookup company", Err: err}
	}

	if d.Cache != nil {
		d.Cache.Set(ctx, &company)
	}
	return &company, nil
}

// CodeBase derives the four character stem of a company code from the
// first two words of name. Short stems are padded with X.
func CodeBase(name string) string {
	words := strings.Fields(name)
	if len(words) > 2 {
		words = words[:2]
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(strings.Join(words, "")) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	base := b.String()
	if len(base) > 4 {
		base = base[:4]
	}
	return base + strings.Repeat("X", 4-len(base))
}

// IssueCode returns the first free code of the form BASE01, BASE02, ...
func (d *TenantDirectory) IssueCode(ctx context.Context, name string) (string, error) {
	return d.issueCode(d.DB.WithContext(ctx), name)
}

func (d *TenantDirectory) issueCode(db *gorm.DB, name string) (string, error) {
	base := CodeBase(name)

	var taken []string
	if err := db.Model(&models.Company{}).
		Where("company_code LIKE ?", base+"%").
		Pluck("company_code", &taken).Error; err != nil {
		return "", &InternalError{Op: "issue company code", Err: err}
	}

	used := make(map[string]struct{}, len(taken))
	for _, code := range taken {
		used[code] = struct{}{}
	}

	for n := 1; n <= maxCodeSuffix; n++ {
		candidate := fmt.Sprintf("%s%02d", base, n)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", FieldError("company_code", "No free company code is left for this name; enter one explicitly.")
}

// CreateCompany registers a tenant, issuing a code when none is given.
func (d *TenantDirectory) CreateCompany(ctx context.Context, in dtos.CreateCompanyRequest) (*models.Company, error) {
	verr := NewValidationError()
	verr.Merge(utils.FieldErrors(in))
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:         strings.TrimSpace(in.Name),
		Code:         utils.NormalizeCompanyCode(in.CompanyCode),
		Address:      in.Address,
		Phone:        in.Phone,
		Email:        utils.NormalizeEmail(in.Email),
		CuisineType:  in.CuisineType,
		MaxEmployees: in.MaxEmployees,
		IsActive:     true,
	}
	if company.MaxEmployees == 0 {
		company.MaxEmployees = 50
	}

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if company.Code == "" {
			code, err := d.issueCode(tx, company.Name)
			if err != nil {
				return err
			}
			company.Code = code
		}
		return tx.Omit(clause.Associations).Create(company).Error
	})

	var verrOut *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verrOut):
		return nil, verrOut
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, FieldError("company_code", "A company with this code already exists.")
	default:
		var internal *InternalError
		if errors.As(err, &internal) {
			return nil, internal
		}
		return nil, &InternalError{Op: "create company", Err: err}
	}

	d.Log.WithFields(logrus.Fields{
		"company_id":   company.ID,
		"company_code": company.Code,
	}).Info("company created")
	return company, nil
}

// SetActive activates or deactivates a company. Deactivated companies stop
// resolving in Lookup immediately.
func (d *TenantDirectory) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Company, error) {
	db := d.DB.WithContext(ctx)

	var company models.Company
	if err := db.Where("id = ?", id).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &InternalError{Op: "load company", Err: err}
	}

	if err := db.Model(&company).Update("is_active", active).Error; err != nil {
		return nil, &InternalError{Op: "update company", Err: err}
	}
	company.IsActive = active

	if d.Cache != nil {
		d.Cache.Invalidate(ctx, company.Code)
	}

	d.Log.WithFields(logrus.Fields{
		"company_code": company.Code,
		"is_active":    active,
	}).Info("company activation changed")
	return &company, nil
}

// ListWithHeadcount lists all companies with their active account count.
func (d *TenantDirectory) ListWithHeadcount(ctx context.Context) ([]CompanyHeadcount, error) {
	db := d.DB.WithContext(ctx)

	var companies []models.Company
	if err := db.Order("name").Find(&companies).Error; err != nil {
		return nil, &InternalError{Op: "list companies", Err: err}
	}

	var counts []struct {
		CompanyID uuid.UUID
		Total     int64
	}
	if err := db.Model(&models.User{}).
		Select("company_id, count(*) AS total").
		Where("is_active = ?", true).
		Group("company_id").
		Scan(&counts).Error; err != nil {
		return nil, &InternalError{Op: "count employees", Err: err}
	}

	byCompany := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byCompany[c.CompanyID] = c.Total
	}

	out := make([]CompanyHeadcount, 0, len(companies))
	for _, c := range companies {
		out = append(out, CompanyHeadcount{Company: c, EmployeeCount: byCompany[c.ID]})
	}
	return out, nil
}
