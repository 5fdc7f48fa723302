package notify

import (
	"context"
	"errors"

	"roster-backend/models"
)

// Notifier is the outbound port of the registration workflow. Callers treat
// every error as best-effort: it is logged, never propagated.
//
// Requests and accounts are passed with their Company loaded.
type Notifier interface {
	VerificationRequested(ctx context.Context, req *models.RegistrationRequest) error
	RegistrationSubmitted(ctx context.Context, req *models.RegistrationRequest, managers []models.User) error
	RegistrationRejected(ctx context.Context, req *models.RegistrationRequest) error
	AccountProvisioned(ctx context.Context, account *models.User) error
}

// Fanout delivers every notification to all of its notifiers, even when an
// earlier one fails.
type Fanout []Notifier

func (f Fanout) VerificationRequested(ctx context.Context, req *models.RegistrationRequest) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.VerificationRequested(ctx, req))
	}
	return errors.Join(errs...)
}

func (f Fanout) RegistrationSubmitted(ctx context.Context, req *models.RegistrationRequest, managers []models.User) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.RegistrationSubmitted(ctx, req, managers))
	}
	return errors.Join(errs...)
}

func (f Fanout) RegistrationRejected(ctx context.Context, req *models.RegistrationRequest) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.RegistrationRejected(ctx, req))
	}
	return errors.Join(errs...)
}

func (f Fanout) AccountProvisioned(ctx context.Context, account *models.User) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.AccountProvisioned(ctx, account))
	}
	return errors.Join(errs...)
}
