package database

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"roster-backend/models"
	"roster-backend/utils"
)

// AdminSeed describes the bootstrap superuser and the company it belongs to.
type AdminSeed struct {
	Email       string
	Password    string
	CompanyName string
	CompanyCode string
}

// Open opens a gorm handle on any dialector. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=roster port=5432 sslmode=disable"
	}

	db, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.RegistrationRequest{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateDefaultAdmin makes sure an approved superuser exists. It is the only
// way into a fresh installation, since every other account needs an
// approver.
func CreateDefaultAdmin(db *gorm.DB, seed AdminSeed) error {
	if seed.Email == "" {
		seed.Email = "admin@roster.local"
	}
	seed.Email = utils.NormalizeEmail(seed.Email)

	var existing models.User
	err := db.Where("email = ?", seed.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	generated := false
	if seed.Password == "" {
		token, err := utils.NewOpaqueToken()
		if err != nil {
			return err
		}
		seed.Password = token[:20]
		generated = true
	}

	hash, err := utils.HashPassword(seed.Password)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		company, err := defaultCompany(tx, seed)
		if err != nil {
			return err
		}

		admin := models.User{
			CompanyID:     company.ID,
			Username:      "admin",
			Email:         seed.Email,
			Password:      hash,
			FirstName:     "Admin",
			LastName:      "User",
			Role:          models.RoleOwner,
			Function:      models.FunctionManager,
			IsApproved:    true,
			EmailVerified: true,
			IsActive:      true,
			IsSuperuser:   true,
		}
		if err := tx.Omit(clause.Associations).Create(&admin).Error; err != nil {
			return err
		}

		entry := log.WithFields(log.Fields{
			"email":           admin.Email,
			"employee_number": admin.EmployeeNumber,
			"company_code":    company.Code,
		})
		if generated {
			entry.Warnf("Default admin created with generated password %s; change it after first login", seed.Password)
		} else {
			entry.Info("Default admin created")
		}
		return nil
	})
}

func defaultCompany(tx *gorm.DB, seed AdminSeed) (*models.Company, error) {
	code := utils.NormalizeCompanyCode(seed.CompanyCode)
	if code == "" {
		code = "HQ01"
	}
	name := seed.CompanyName
	if name == "" {
		name = "Head Office"
	}

	var company models.Company
	err := tx.Where("company_code = ?", code).First(&company).Error
	if err == nil {
		return &company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	company = models.Company{Name: name, Code: code, MaxEmployees: 50, IsActive: true}
	if err := tx.Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
