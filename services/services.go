package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roster-backend/notify"
)

// Services bundles the domain services the HTTP layer depends on.
type Services struct {
	Tenants       *TenantDirectory
	Accounts      *IdentityStore
	Registrations *RegistrationWorkflow
}

// New wires the services around one database. cache may be nil.
func New(db *gorm.DB, cache TenantCache, notifier notify.Notifier, log logrus.FieldLogger) *Services {
	if log == nil {
		log = logrus.StandardLogger()
	}

	tenants := &TenantDirectory{DB: db, Cache: cache, Log: log}
	accounts := &IdentityStore{DB: db, Log: log, Now: time.Now}

	return &Services{
		Tenants:  tenants,
		Accounts: accounts,
		Registrations: &RegistrationWorkflow{
			DB:       db,
			Tenants:  tenants,
			Accounts: accounts,
			Notifier: notifier,
			Log:      log,
			Now:      time.Now,
		},
	}
}
