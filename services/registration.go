package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roster-backend/dtos"
	"roster-backend/metrics"
	"roster-backend/models"
	"roster-backend/notify"
	"roster-backend/utils"
)

const (
	msgEmailRegistered = "This email address is already registered. Try logging in or contact your manager."
	msgInvalidCode     = "Invalid company code. Ask your manager for the correct code."
	msgPendingExists   = "A registration request for this email address is already pending at this company."
)

// RegistrationWorkflow drives a request from submission through email
// verification to a manager's decision.
type RegistrationWorkflow struct {
	DB       *gorm.DB
	Tenants  *TenantDirectory
	Accounts *IdentityStore
	Notifier notify.Notifier
	Policy   AccessPolicy
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Decision is the outcome of Decide. Account is set only on approval.
type Decision struct {
	Request *models.RegistrationRequest
	Account *models.User
}

// Submit validates an application and stores it as a pending, unverified
// request. Only the bcrypt hash of the password is kept.
func (w *RegistrationWorkflow) Submit(ctx context.Context, in dtos.RegistrationSubmission) (*models.RegistrationRequest, error) {
	db := w.DB.WithContext(ctx)

	verr := NewValidationError()
	verr.Merge(utils.FieldErrors(in))

	email := utils.NormalizeEmail(in.Email)
	if !verr.Has("email") {
		var registered int64
		if err := db.Model(&models.User{}).Where("email = ?", email).Count(&registered).Error; err != nil {
			return nil, &InternalError{Op: "check email", Err: err}
		}
		if registered > 0 {
			verr.Add("email", msgEmailRegistered)
		}
	}

	var phone string
	if !verr.Has("phone") {
		normalized, err := utils.NormalizeDutchMobile(in.Phone)
		if err != nil {
			verr.Add("phone", err.Error())
		}
		phone = normalized
	}

	if in.Password != "" {
		if problems := utils.ValidatePassword(in.Password, email, in.FirstName, in.LastName); len(problems) > 0 {
			verr.Add("password", problems...)
		}
	}

	var company *models.Company
	if !verr.Has("company_code") {
		found, err := w.Tenants.Lookup(ctx, in.CompanyCode)
		switch {
		case errors.Is(err, ErrNotFound):
			verr.Add("company_code", msgInvalidCode)
		case err != nil:
			return nil, err
		}
		company = found
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if in.Password != in.PasswordConfirm {
		return nil, FieldError("password_confirm", "Passwords do not match.")
	}

	var pending int64
	if err := db.Model(&models.RegistrationRequest{}).
		Where("email = ? AND company_id = ? AND status = ?", email, company.ID, models.StatusPending).
		Count(&pending).Error; err != nil {
		return nil, &InternalError{Op: "check pending requests", Err: err}
	}
	if pending > 0 {
		return nil, FieldError(NonFieldErrors, msgPendingExists)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, &InternalError{Op: "hash password", Err: err}
	}
	token, err := utils.NewOpaqueToken()
	if err != nil {
		return nil, &InternalError{Op: "generate verification token", Err: err}
	}

	req := &models.RegistrationRequest{
		Email:              email,
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Phone:              phone,
		Function:           in.Function,
		CompanyID:          company.ID,
		CompanyCodeEntered: in.CompanyCode,
		Status:             models.StatusPending,
		PasswordHash:       hash,
		VerificationToken:  token,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(req).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race against a concurrent submission for the same pair.
		return nil, FieldError(NonFieldErrors, msgPendingExists)
	}
	if err != nil {
		w.Log.WithError(err).WithField("company_code", company.Code).Error("failed to store registration request")
		return nil, &InternalError{Op: "submit registration", Err: err}
	}
	req.Company = *company

	metrics.RegistrationsSubmitted.Inc()
	w.Log.WithFields(logrus.Fields{
		"registration_id": req.ID,
		"company_code":    company.Code,
	}).Info("registration request submitted")

	w.afterSubmit(context.WithoutCancel(ctx), req)
	return req, nil
}

func (w *RegistrationWorkflow) afterSubmit(ctx context.Context, req *models.RegistrationRequest) {
	w.report("verification", req.ID, w.Notifier.VerificationRequested(ctx, req))

	managers, err := w.approvers(ctx, req.CompanyID)
	if err != nil {
		w.report("manager_alert", req.ID, err)
		return
	}
	w.report("manager_alert", req.ID, w.Notifier.RegistrationSubmitted(ctx, req, managers))
}

// approvers are the active, approved managers and owners of a company.
func (w *RegistrationWorkflow) approvers(ctx context.Context, companyID uuid.UUID) ([]models.User, error) {
	var managers []models.User
	err := w.DB.WithContext(ctx).
		Where("company_id = ? AND role IN ? AND is_active = ? AND is_approved = ?",
			companyID, []string{models.RoleManager, models.RoleOwner}, true, true).
		Find(&managers).Error
	return managers, err
}

// report logs a failed notification. Notifications never fail the workflow.
func (w *RegistrationWorkflow) report(kind string, registrationID uuid.UUID, err error) {
	if err == nil {
		return
	}
	metrics.NotificationFailures.WithLabelValues(kind).Inc()
	w.Log.WithError(err).WithFields(logrus.Fields{
		"registration_id": registrationID,
		"notification":    kind,
	}).Error("notification failed")
}

// Verify marks the pending request holding token as email-verified. Calling
// it again while the request is still pending succeeds without change; once
// the request is decided the token no longer resolves.
func (w *RegistrationWorkflow) Verify(ctx context.Context, token string) (*models.RegistrationRequest, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	var req models.RegistrationRequest
	firstTime := false
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Company").
			Where("verification_token = ? AND status = ?", token, models.StatusPending).
			First(&req).Error; err != nil {
			return err
		}
		if req.EmailVerified {
			return nil
		}

		res := tx.Model(&models.RegistrationRequest{}).
			Where("id = ? AND status = ?", req.ID, models.StatusPending).
			Update("email_verified", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		req.EmailVerified = true
		firstTime = true
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		w.Log.WithError(err).Error("failed to verify registration email")
		return nil, &InternalError{Op: "verify email", Err: err}
	}

	if firstTime {
		metrics.RegistrationsVerified.Inc()
		w.Log.WithField("registration_id", req.ID).Info("registration email verified")
	}
	return &req, nil
}

// ListPending returns the verified, pending requests of the viewer's company,
// newest first. Viewers who cannot approve get an empty list.
func (w *RegistrationWorkflow) ListPending(ctx context.Context, viewer *models.User) ([]models.RegistrationRequest, error) {
	requests := []models.RegistrationRequest{}
	if viewer == nil || !viewer.IsActive || !viewer.CanApproveRequests() {
		return requests, nil
	}

	err := w.DB.WithContext(ctx).
		Preload("Company").
		Where("company_id = ? AND status = ? AND email_verified = ?", viewer.CompanyID, models.StatusPending, true).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, &InternalError{Op: "list pending registrations", Err: err}
	}
	return requests, nil
}

// List returns the registration history visible to viewer.
func (w *RegistrationWorkflow) List(ctx context.Context, viewer *models.User) ([]models.RegistrationRequest, error) {
	requests := []models.RegistrationRequest{}
	err := w.DB.WithContext(ctx).
		Scopes(w.Policy.RegistrationScope(viewer)).
		Preload("Company").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, &InternalError{Op: "list registrations", Err: err}
	}
	return requests, nil
}

// reviewable loads a request actor could decide right now.
func reviewable(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.RegistrationRequest, error) {
	var req models.RegistrationRequest
	err := db.Preload("Company").
		Where("id = ? AND company_id = ? AND status = ? AND email_verified = ?",
			id, actor.CompanyID, models.StatusPending, true).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Reviewable returns the request Decide would act on, with the same
// ErrForbidden and ErrNotFound outcomes.
func (w *RegistrationWorkflow) Reviewable(ctx context.Context, actor *models.User, id uuid.UUID) (*models.RegistrationRequest, error) {
	if actor == nil || !actor.IsActive || !actor.CanApproveRequests() {
		return nil, ErrForbidden
	}
	req, err := reviewable(w.DB.WithContext(ctx), actor, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &InternalError{Op: "load registration", Err: err}
	}
	return req, nil
}

func validateDecision(in dtos.RegistrationDecision) error {
	verr := NewValidationError()
	verr.Merge(utils.FieldErrors(in))
	if in.Status == models.StatusRejected && strings.TrimSpace(in.RejectionReason) == "" {
		verr.Add("rejection_reason", "A rejection reason is required.")
	}
	return verr.OrNil()
}

// Decide approves or rejects a pending, verified request of the actor's
// company. The status change and, on approval, the new account commit
// together or not at all. A request that is no longer pending when the
// update runs resolves to ErrNotFound, so concurrent decisions cannot both
// win.
func (w *RegistrationWorkflow) Decide(ctx context.Context, actor *models.User, id uuid.UUID, in dtos.RegistrationDecision) (*Decision, error) {
	if actor == nil || !actor.IsActive || !actor.CanApproveRequests() {
		return nil, ErrForbidden
	}

	now := w.Now()
	result := &Decision{}

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := reviewable(tx, actor, id)
		if err != nil {
			return err
		}

		if err := validateDecision(in); err != nil {
			return err
		}

		reviewerID := actor.ID
		updates := map[string]interface{}{
			"status":         in.Status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    now,
		}
		if in.Status == models.StatusRejected {
			updates["rejection_reason"] = strings.TrimSpace(in.RejectionReason)
		}

		res := tx.Model(&models.RegistrationRequest{}).
			Where("id = ? AND status = ?", req.ID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		req.Status = in.Status
		req.ReviewedByID = &reviewerID
		req.ReviewedAt = &now
		if in.Status == models.StatusRejected {
			req.RejectionReason = strings.TrimSpace(in.RejectionReason)
		}
		result.Request = req

		if in.Status == models.StatusApproved {
			account, err := w.Accounts.provisionFromRequest(tx, req, actor, now)
			if err != nil {
				return err
			}
			result.Account = account
		}
		return nil
	})

	var verr *ValidationError
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case errors.As(err, &verr):
		return nil, verr
	default:
		w.Log.WithError(err).WithFields(logrus.Fields{
			"registration_id": id,
			"reviewer_id":     actor.ID,
			"decision":        in.Status,
		}).Error("registration decision failed")
		return nil, &InternalError{Op: "decide registration", Err: err}
	}

	metrics.RegistrationDecisions.WithLabelValues(in.Status).Inc()
	fields := logrus.Fields{
		"registration_id": result.Request.ID,
		"company_code":    result.Request.Company.Code,
		"decision":        in.Status,
		"reviewer_id":     actor.ID,
	}

	notifyCtx := context.WithoutCancel(ctx)
	if result.Account != nil {
		metrics.AccountsProvisioned.WithLabelValues("registration").Inc()
		fields["username"] = result.Account.Username
		fields["employee_number"] = result.Account.EmployeeNumber
		w.Log.WithFields(fields).Info("registration approved")
		w.report("welcome", result.Request.ID, w.Notifier.AccountProvisioned(notifyCtx, result.Account))
	} else {
		w.Log.WithFields(fields).Info("registration rejected")
		w.report("rejection", result.Request.ID, w.Notifier.RegistrationRejected(notifyCtx, result.Request))
	}

	return result, nil
}
