package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"roster-backend/database"
	"roster-backend/dtos"
	"roster-backend/models"
	"roster-backend/utils"
)

const testPassword = "Zonnebloem42"

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu           sync.Mutex
	verification []*models.RegistrationRequest
	submitted    []*models.RegistrationRequest
	managers     [][]models.User
	rejected     []*models.RegistrationRequest
	provisioned  []*models.User
	err          error
}

func (n *recordingNotifier) VerificationRequested(ctx context.Context, req *models.RegistrationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verification = append(n.verification, req)
	return n.err
}

func (n *recordingNotifier) RegistrationSubmitted(ctx context.Context, req *models.RegistrationRequest, managers []models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, req)
	n.managers = append(n.managers, managers)
	return n.err
}

func (n *recordingNotifier) RegistrationRejected(ctx context.Context, req *models.RegistrationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, req)
	return n.err
}

func (n *recordingNotifier) AccountProvisioned(ctx context.Context, account *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.provisioned = append(n.provisioned, account)
	return n.err
}

type fixture struct {
	db       *gorm.DB
	svc      *Services
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(sqlite.Open("file::memory:?_foreign_keys=on"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	log, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	svc := New(db, nil, notifier, log)
	svc.Accounts.Now = func() time.Time { return fixedNow }
	svc.Registrations.Now = func() time.Time { return fixedNow }

	return &fixture{db: db, svc: svc, notifier: notifier}
}

func (f *fixture) company(t *testing.T, name, code string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, Code: code, CuisineType: "Italian", IsActive: true}
	require.NoError(t, f.db.Create(company).Error)
	return company
}

type userOpt func(*models.User)

func approved(u *models.User) { u.IsApproved = true }

func superuser(u *models.User) { u.IsSuperuser = true }

func (f *fixture) user(t *testing.T, company *models.Company, username, role string, opts ...userOpt) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)

	user := &models.User{
		CompanyID: company.ID,
		Username:  username,
		Email:     username + "@example.nl",
		Password:  hash,
		FirstName: "First",
		LastName:  username,
		Role:      role,
		Function:  models.FunctionServer,
		IsActive:  true,
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, f.db.Omit("Company", "ApprovedBy").Create(user).Error)
	user.Company = *company
	return user
}

func (f *fixture) deactivate(t *testing.T, user *models.User) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	user.IsActive = false
}

func submission(code string) dtos.RegistrationSubmission {
	return dtos.RegistrationSubmission{
		Email:           "Piet@Example.nl",
		FirstName:       "Piet",
		LastName:        "Janssen",
		Phone:           "06-12345678",
		Function:        models.FunctionKitchen,
		CompanyCode:     code,
		Password:        testPassword,
		PasswordConfirm: testPassword,
	}
}

// submitVerified stores a request and confirms its email address.
func (f *fixture) submitVerified(t *testing.T, in dtos.RegistrationSubmission) *models.RegistrationRequest {
	t.Helper()
	req, err := f.svc.Registrations.Submit(context.Background(), in)
	require.NoError(t, err)
	_, err = f.svc.Registrations.Verify(context.Background(), req.VerificationToken)
	require.NoError(t, err)
	return req
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
