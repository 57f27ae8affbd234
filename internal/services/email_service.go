package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/lendana/lendana-api/internal/config"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// enabled reports whether outbound email is configured. When RESEND_API_KEY
// or FROM_EMAIL is missing the service silently skips sends.
func (s *EmailService) enabled() bool {
	return s.config.ResendAPIKey != "" && s.config.FromEmail != ""
}

func (s *EmailService) SendWelcome(ctx context.Context, user *models.User, tempPassword string) error {
	if !s.enabled() {
		return nil
	}

	data := struct {
		Name         string
		Email        string
		TempPassword string
		AppURL       string
	}{
		Name:         user.FullName,
		Email:        user.Email,
		TempPassword: tempPassword,
		AppURL:       s.config.AppURL,
	}

	body, err := s.renderTemplate("welcome.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Welcome to Lendana", body)
}

func (s *EmailService) SendLoanApproved(ctx context.Context, user *models.User, loan *models.Loan) error {
	if !s.enabled() {
		return nil
	}

	data := struct {
		Name              string
		Reference         string
		Principal         string
		TermWeeks         int
		InstallmentAmount string
		ApprovedAt        string
		AppURL            string
	}{
		Name:              user.FullName,
		Reference:         loan.Reference,
		Principal:         loan.Principal.StringFixed(2),
		TermWeeks:         loan.TermWeeks,
		InstallmentAmount: loan.InstallmentAmount.StringFixed(2),
		ApprovedAt:        loan.ApprovedAt.Format("02/01/2006 15:04"),
		AppURL:            s.config.AppURL,
	}

	body, err := s.renderTemplate("loan_approved.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Loan Approved", body)
}

func (s *EmailService) SendLoanRejected(ctx context.Context, user *models.User, loan *models.Loan, reason string) error {
	if !s.enabled() {
		return nil
	}

	data := struct {
		Name      string
		Reference string
		Principal string
		Reason    string
		AppURL    string
	}{
		Name:      user.FullName,
		Reference: loan.Reference,
		Principal: loan.Principal.StringFixed(2),
		Reason:    reason,
		AppURL:    s.config.AppURL,
	}

	body, err := s.renderTemplate("loan_rejected.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Loan Application Rejected", body)
}

func (s *EmailService) SendLoanSettled(ctx context.Context, user *models.User, loan *models.Loan) error {
	if !s.enabled() {
		return nil
	}

	data := struct {
		Name      string
		Reference string
		Principal string
		PaidAt    string
		AppURL    string
	}{
		Name:      user.FullName,
		Reference: loan.Reference,
		Principal: loan.Principal.StringFixed(2),
		PaidAt:    loan.PaidAt.Format("02/01/2006 15:04"),
		AppURL:    s.config.AppURL,
	}

	body, err := s.renderTemplate("loan_settled.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Loan Fully Repaid", body)
}

type OverdueInstallmentData struct {
	Reference string
	Amount    string
	DueDate   string
}

func (s *EmailService) SendOverdueInstallments(ctx context.Context, user *models.User, installments []models.Installment) error {
	if !s.enabled() {
		return nil
	}

	var rows []OverdueInstallmentData
	for _, inst := range installments {
		rows = append(rows, OverdueInstallmentData{
			Reference: inst.Loan.Reference,
			Amount:    inst.AmountDue.StringFixed(2),
			DueDate:   inst.DueDate.Format("02/01/2006"),
		})
	}

	data := struct {
		Name         string
		Installments []OverdueInstallmentData
		AppURL       string
	}{
		Name:         user.FullName,
		Installments: rows,
		AppURL:       s.config.AppURL,
	}

	body, err := s.renderTemplate("overdue_installment.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, fmt.Sprintf("Overdue Installments (%d)", len(installments)), body)
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
