package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roster-backend/dtos"
	"roster-backend/metrics"
	"roster-backend/models"
	"roster-backend/utils"
)

// IdentityStore owns staff accounts.
type IdentityStore struct {
	DB     *gorm.DB
	Policy AccessPolicy
	Log    logrus.FieldLogger
	Now    func() time.Time
}

// UsernameBase is first.last in lower case with whitespace removed.
func UsernameBase(firstName, lastName string) string {
	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, s)
	}
	return strip(firstName) + "." + strip(lastName)
}

// UniqueUsername returns the base username, or the base with the smallest
// integer suffix that is not yet taken.
func UniqueUsername(db *gorm.DB, firstName, lastName string) (string, error) {
	base := UsernameBase(firstName, lastName)
	candidate := base
	for n := 1; ; n++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(n)
	}
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// provision inserts account inside tx. The email is re-checked here so two
// tenants approving the same address cannot both succeed.
func (s *IdentityStore) provision(tx *gorm.DB, account *models.User) error {
	var existing int64
	if err := tx.Model(&models.User{}).Where("email = ?", account.Email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return FieldError("email", "An account with this email address already exists.")
	}

	if account.Username == "" {
		username, err := UniqueUsername(tx, account.FirstName, account.LastName)
		if err != nil {
			return err
		}
		account.Username = username
	}
	account.IsActive = true

	if err := tx.Omit(clause.Associations).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return FieldError(NonFieldErrors, "An account with this email, username or employee number was created at the same time. Please try again.")
		}
		return err
	}
	return nil
}

// provisionFromRequest materialises the account for an approved request.
// It runs inside the decision transaction.
func (s *IdentityStore) provisionFromRequest(tx *gorm.DB, req *models.RegistrationRequest, approver *models.User, now time.Time) (*models.User, error) {
	hash := req.PasswordHash
	if hash == "" {
		// Rows created outside Submit carry no credential. Issue an
		// unguessable one; the applicant has to reset it.
		random, err := utils.NewOpaqueToken()
		if err != nil {
			return nil, err
		}
		if hash, err = utils.HashPassword(random); err != nil {
			return nil, err
		}
	}

	approverID := approver.ID
	hired := today(now)
	account := &models.User{
		CompanyID:     req.CompanyID,
		Email:         req.Email,
		Password:      hash,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Role:          models.RoleForFunction(req.Function),
		Function:      req.Function,
		HireDate:      &hired,
		IsApproved:    true,
		ApprovedByID:  &approverID,
		ApprovedAt:    &now,
		EmailVerified: true,
	}

	if err := s.provision(tx, account); err != nil {
		return nil, err
	}
	account.Company = req.Company
	return account, nil
}

// CreateAccount provisions an account outside the registration workflow.
// A nil creator is the system path used for seeding: the account is created
// unapproved. Otherwise creator must be allowed to provision and the account
// is auto-approved by them.
func (s *IdentityStore) CreateAccount(ctx context.Context, creator *models.User, in dtos.CreateAccountRequest) (*models.User, error) {
	if creator != nil && !s.Policy.CanProvision(creator) {
		return nil, ErrForbidden
	}

	verr := NewValidationError()
	verr.Merge(utils.FieldErrors(in))

	email := utils.NormalizeEmail(in.Email)

	phone := ""
	if strings.TrimSpace(in.Phone) != "" && !verr.Has("phone") {
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

	role := in.Role
	if role == "" {
		role = models.RoleForFunction(in.Function)
	}
	if creator != nil && !creator.IsSuperuser && role == models.RoleOwner && creator.Role != models.RoleOwner {
		verr.Add("role", "You cannot assign a role above your own.")
	}

	companyID := uuid.Nil
	switch {
	case creator == nil || creator.IsSuperuser:
		if in.CompanyID != nil {
			companyID = *in.CompanyID
		} else if creator != nil {
			companyID = creator.CompanyID
		} else {
			verr.Add("company_id", "This field is required.")
		}
	default:
		companyID = creator.CompanyID
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, &InternalError{Op: "hash password", Err: err}
	}

	now := s.Now()
	hired := today(now)
	account := &models.User{
		CompanyID: companyID,
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     phone,
		Role:      role,
		Function:  in.Function,
		HireDate:  &hired,
	}
	s.Policy.ApplyAutoApproval(creator, account, now)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.Where("id = ?", companyID).First(&company).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return FieldError("company_id", "Unknown company.")
			}
			return err
		}
		if err := s.provision(tx, account); err != nil {
			return err
		}
		account.Company = company
		return nil
	})
	if err != nil {
		var verrOut *ValidationError
		if errors.As(err, &verrOut) {
			return nil, verrOut
		}
		s.Log.WithError(err).WithField("email", email).Error("failed to create account")
		return nil, &InternalError{Op: "create account", Err: err}
	}

	metrics.AccountsProvisioned.WithLabelValues("direct").Inc()
	s.Log.WithFields(logrus.Fields{
		"account_id":      account.ID,
		"username":        account.Username,
		"employee_number": account.EmployeeNumber,
		"approved":        account.IsApproved,
	}).Info("account created")
	return account, nil
}

// Get loads an account with its company.
func (s *IdentityStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Preload("Company").Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &InternalError{Op: "load account", Err: err}
	}
	return &user, nil
}

// List returns the accounts viewer is allowed to see.
func (s *IdentityStore) List(ctx context.Context, viewer *models.User) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Scopes(s.Policy.AccountScope(viewer)).
		Preload("Company").
		Order("last_name, first_name").
		Find(&users).Error
	if err != nil {
		return nil, &InternalError{Op: "list accounts", Err: err}
	}
	return users, nil
}

// Authenticate accepts a username or an email address.
func (s *IdentityStore) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("Company").
		Where("username = ? OR email = ?", login, utils.NormalizeEmail(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, &InternalError{Op: "authenticate", Err: err}
	}

	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return &user, nil
}

// UpdateProfile applies the self-service editable fields.
func (s *IdentityStore) UpdateProfile(ctx context.Context, user *models.User, in dtos.ProfileUpdate) (*models.User, error) {
	verr := NewValidationError()
	verr.Merge(utils.FieldErrors(in))

	db := s.DB.WithContext(ctx)
	updates := map[string]interface{}{}

	if in.Email != nil && !verr.Has("email") {
		email := utils.NormalizeEmail(*in.Email)
		var taken int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken).Error; err != nil {
			return nil, &InternalError{Op: "check email", Err: err}
		}
		if taken > 0 {
			verr.Add("email", "An account with this email address already exists.")
		}
		updates["email"] = email
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			verr.Add("first_name", "This field may not be blank.")
		}
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			verr.Add("last_name", "This field may not be blank.")
		}
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil && !verr.Has("phone") {
		phone := ""
		if strings.TrimSpace(*in.Phone) != "" {
			normalized, err := utils.NormalizeDutchMobile(*in.Phone)
			if err != nil {
				verr.Add("phone", err.Error())
			}
			phone = normalized
		}
		updates["phone"] = phone
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, FieldError("email", "An account with this email address already exists.")
			}
			return nil, &InternalError{Op: "update profile", Err: err}
		}
	}
	return s.Get(ctx, user.ID)
}

// ChangePassword verifies the current password and stores the new one. The
// new password gets the generic strength check only.
func (s *IdentityStore) ChangePassword(ctx context.Context, user *models.User, in dtos.ChangePasswordRequest) error {
	verr := NewValidationError()
	verr.Merge(utils.FieldErrors(in))
	if err := verr.OrNil(); err != nil {
		return err
	}

	if !utils.CheckPassword(user.Password, in.OldPassword) {
		return FieldError("old_password", "Your old password was entered incorrectly.")
	}
	if problems := utils.CheckPasswordStrength(in.NewPassword, user.Email, user.Username, user.FirstName, user.LastName); len(problems) > 0 {
		verr.Add("new_password", problems...)
	}
	if in.NewPassword != in.NewPasswordConfirm {
		verr.Add("new_password_confirm", "The new passwords do not match.")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return &InternalError{Op: "hash password", Err: err}
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("password", hash).Error; err != nil {
		return &InternalError{Op: "change password", Err: err}
	}
	user.Password = hash
	return nil
}
