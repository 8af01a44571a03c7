// Package delivery emails encrypted payslip artifacts to employees. The
// dispatcher composes the Hebrew message per artifact and records one
// outcome per input, in input order; a missing address becomes a failed
// outcome without contacting the mail server.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oharel/talush/internal/payslips"
	"github.com/oharel/talush/internal/splitter"
)

const subjectTemplate = "תלוש שכר - %s"

const bodyTemplate = `<div dir="rtl" style="font-family: Arial, sans-serif; font-size: 14px;">
<p>שלום %s,</p>

<p>מצורף תלוש השכר שלך עבור <strong>%s</strong>.</p>

<p>הקובץ מוצפן. הסיסמה לפתיחה היא <strong>מספר תעודת הזהות שלך</strong>.</p>

<p>בברכה,<br>%s</p>
</div>
`

// Message is one composed payslip email with its encrypted attachment.
type Message struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentPath string
	AttachmentName string
}

// Mailer sends a composed message. Implementations must not retry; the
// dispatcher records a single outcome per attempt.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Outcome reports one delivery attempt.
type Outcome struct {
	EmployeeName string `json:"employee_name"`
	Email        string `json:"email"`
	Filename     string `json:"filename"`
	Sent         bool   `json:"sent"`
	Error        string `json:"error,omitempty"`
}

type Dispatcher struct {
	mailer     Mailer
	senderName string
	logger     *slog.Logger
}

func NewDispatcher(mailer Mailer, senderName string, logger *slog.Logger) *Dispatcher {
	if senderName == "" {
		senderName = "מחלקת שכר"
	}
	return &Dispatcher{
		mailer:     mailer,
		senderName: senderName,
		logger:     logger.With("system", "delivery"),
	}
}

// DispatchAll sends every artifact to its employee. Outcomes come back in
// input order regardless of failures.
func (d *Dispatcher) DispatchAll(ctx context.Context, results []splitter.Result) []Outcome {
	outcomes := make([]Outcome, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, d.Dispatch(ctx, result))
	}
	return outcomes
}

// Dispatch sends one artifact. A payslip without an email address fails
// immediately without a send attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, result splitter.Result) Outcome {
	slip := result.Payslip

	outcome := Outcome{
		EmployeeName: displayName(slip),
		Email:        slip.Email,
		Filename:     result.Filename,
	}

	if slip.Email == "" {
		outcome.Error = "No email address found in payslip"
		d.logger.Warn("skipping delivery, no email address",
			"page", slip.PageIndex,
			"employee", outcome.EmployeeName)
		return outcome
	}

	err := d.Send(ctx, SendRequest{
		Email:          slip.Email,
		EmployeeName:   greetingName(slip),
		Period:         slip.Period(),
		AttachmentPath: result.Path,
		AttachmentName: result.Filename,
	})
	if err != nil {
		outcome.Error = err.Error()
		d.logger.Error("delivery failed",
			"employee", outcome.EmployeeName,
			"email", slip.Email,
			"error", err)
		return outcome
	}

	outcome.Sent = true
	d.logger.Info("payslip delivered",
		"employee", outcome.EmployeeName,
		"email", slip.Email,
		"filename", result.Filename)
	return outcome
}

// SendRequest carries everything needed to compose one payslip email,
// independent of a split run so retries can rebuild it from a stored
// delivery record.
type SendRequest struct {
	Email          string
	EmployeeName   string
	Period         string
	AttachmentPath string
	AttachmentName string
}

// Send composes and sends one payslip email.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) error {
	msg := Message{
		To:             req.Email,
		Subject:        fmt.Sprintf(subjectTemplate, req.Period),
		HTMLBody:       fmt.Sprintf(bodyTemplate, req.EmployeeName, req.Period, d.senderName),
		AttachmentPath: req.AttachmentPath,
		AttachmentName: req.AttachmentName,
	}
	return d.mailer.Send(ctx, msg)
}

func displayName(slip payslips.Payslip) string {
	if slip.Name == "" {
		return "Unknown"
	}
	return slip.Name
}

func greetingName(slip payslips.Payslip) string {
	if slip.Name == "" {
		return "עובד/ת"
	}
	return slip.Name
}
