package services

import (
	"github.com/lendana/lendana-api/internal/config"
	"github.com/lendana/lendana-api/internal/jobs"
	"github.com/lendana/lendana-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Loan         *LoanService
	Payment      *PaymentService
	Notification *NotificationService
	Report       *ReportService
	Audit        *AuditService
	Email        *EmailService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, uow repository.UnitOfWork, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos.User, worker, emailSvc, auditSvc),
		Loan:         NewLoanService(repos.Loan, repos.Installment, repos.User, uow, notificationSvc, emailSvc, auditSvc, worker),
		Payment:      NewPaymentService(repos.Loan, repos.Installment, repos.User, uow, notificationSvc, emailSvc, auditSvc, worker),
		Notification: notificationSvc,
		Report:       NewReportService(repos.Loan, repos.Installment, repos.User),
		Audit:        auditSvc,
		Email:        emailSvc,
	}
}
