package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roster-backend/models"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// MailNotifier renders workflow notifications as emails. Every send is
// bounded by Timeout.
type MailNotifier struct {
	Sender      Sender
	FrontendURL string
	Timeout     time.Duration
}

func NewMailNotifier(sender Sender, frontendURL string, timeout time.Duration) *MailNotifier {
	return &MailNotifier{
		Sender:      sender,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		Timeout:     timeout,
	}
}

func (n *MailNotifier) send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	if err := n.Sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	return nil
}

func (n *MailNotifier) VerificationURL(token string) string {
	return fmt.Sprintf("%s/verify-email/%s", n.FrontendURL, token)
}

func (n *MailNotifier) VerificationRequested(ctx context.Context, req *models.RegistrationRequest) error {
	company := req.Company.Name
	body := fmt.Sprintf(`Hello %s,

Thank you for registering with %s!

Click the link below to confirm your email address:
%s

Once confirmed, your manager will review your account.

Kind regards,
The Roster Team
`, req.FirstName, company, n.VerificationURL(req.VerificationToken))

	return n.send(ctx, Message{
		To:      []string{req.Email},
		Subject: fmt.Sprintf("Confirm your registration with %s", company),
		Body:    body,
	})
}

func (n *MailNotifier) RegistrationSubmitted(ctx context.Context, req *models.RegistrationRequest, managers []models.User) error {
	var to []string
	for _, m := range managers {
		to = append(to, m.Email)
	}

	body := fmt.Sprintf(`A new registration request has arrived:

Name: %s
Email: %s
Function: %s
Phone: %s

Log in to review and approve this request.
`, req.ApplicantName(), req.Email, models.FunctionLabel(req.Function), req.Phone)

	return n.send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("New registration request - %s", req.Company.Name),
		Body:    body,
	})
}

func (n *MailNotifier) RegistrationRejected(ctx context.Context, req *models.RegistrationRequest) error {
	company := req.Company.Name
	body := fmt.Sprintf(`Hello %s,

Unfortunately your registration for %s could not be approved.

Reason: %s

Please contact your manager for more information.

Kind regards,
The Roster Team
`, req.FirstName, company, req.RejectionReason)

	return n.send(ctx, Message{
		To:      []string{req.Email},
		Subject: fmt.Sprintf("Registration rejected - %s", company),
		Body:    body,
	})
}

func (n *MailNotifier) AccountProvisioned(ctx context.Context, account *models.User) error {
	company := account.Company.Name
	body := fmt.Sprintf(`Welcome %s!

Your account for %s has been created and approved.

Login details:
- Username: %s
- Employee number: %s
- Function: %s

You can now log in to the roster system.
Please change your password after your first login.
`, account.FirstName, company, account.Username, account.EmployeeNumber, models.FunctionLabel(account.Function))

	return n.send(ctx, Message{
		To:      []string{account.Email},
		Subject: fmt.Sprintf("Welcome to %s - your account is ready", company),
		Body:    body,
	})
}
