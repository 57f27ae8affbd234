package services

import (
	"context"
	"sort"
	"sync"

	"github.com/lendana/lendana-api/internal/config"
	"github.com/lendana/lendana-api/internal/jobs"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"gorm.io/gorm"
)

// In-memory fakes backing the service tests. They are mutex-guarded because
// services fire notification and email jobs on background goroutines.

type fakeLoanRepo struct {
	repository.LoanRepository
	mu     sync.Mutex
	nextID uint
	loans  map[uint]*models.Loan
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{nextID: 1, loans: make(map[uint]*models.Loan)}
}

func (f *fakeLoanRepo) get(id uint) (*models.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *loan
	return &cp, nil
}

func (f *fakeLoanRepo) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeLoanRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeLoanRepo) FindByIDWithSchedule(ctx context.Context, id uint) (*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeLoanRepo) Create(ctx context.Context, loan *models.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan.ID = f.nextID
	f.nextID++
	cp := *loan
	f.loans[loan.ID] = &cp
	return nil
}

func (f *fakeLoanRepo) Update(ctx context.Context, loan *models.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *loan
	f.loans[loan.ID] = &cp
	return nil
}

type fakeInstallmentRepo struct {
	repository.InstallmentRepository
	mu           sync.Mutex
	nextID       uint
	installments []*models.Installment
	reminded     []uint
}

func newFakeInstallmentRepo() *fakeInstallmentRepo {
	return &fakeInstallmentRepo{nextID: 1}
}

func (f *fakeInstallmentRepo) CreateBatch(ctx context.Context, installments []models.Installment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range installments {
		installments[i].ID = f.nextID
		f.nextID++
		cp := installments[i]
		f.installments = append(f.installments, &cp)
	}
	return nil
}

func (f *fakeInstallmentRepo) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Installment
	for _, inst := range f.installments {
		if inst.LoanID == loanID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

func (f *fakeInstallmentRepo) FindNextUnpaidForUpdate(ctx context.Context, loanID uint) (*models.Installment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var next *models.Installment
	for _, inst := range f.installments {
		if inst.LoanID != loanID || inst.Paid {
			continue
		}
		if next == nil ||
			inst.DueDate.Before(next.DueDate) ||
			(inst.DueDate.Equal(next.DueDate) && inst.ID < next.ID) {
			next = inst
		}
	}
	if next == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *next
	return &cp, nil
}

func (f *fakeInstallmentRepo) Update(ctx context.Context, installment *models.Installment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, inst := range f.installments {
		if inst.ID == installment.ID {
			cp := *installment
			f.installments[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeInstallmentRepo) FindOverdueUnnotified(ctx context.Context) ([]models.Installment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Installment
	for _, inst := range f.installments {
		cp := *inst
		if cp.IsOverdue() && cp.OverdueReminderSentAt == nil {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeInstallmentRepo) MarkOverdueReminderSent(ctx context.Context, installmentIDs []uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminded = append(f.reminded, installmentIDs...)
	return nil
}

type fakeUserRepo struct {
	repository.UserRepository
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User)}
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) FindAdmins(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.Role == models.RoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	repository.NotificationRepository
	mu            sync.Mutex
	notifications []models.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, *notification)
	return nil
}

// fakeUnitOfWork runs the function directly against the fakes. Calls are
// serialized with a mutex, standing in for the row locks the real unit of
// work takes, so concurrent lifecycle operations observe committed state.
type fakeUnitOfWork struct {
	mu    sync.Mutex
	repos *repository.Repositories
}

func (f *fakeUnitOfWork) Do(ctx context.Context, fn func(r *repository.Repositories) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f.repos)
}

type serviceFixture struct {
	loans         *fakeLoanRepo
	installments  *fakeInstallmentRepo
	users         *fakeUserRepo
	notifications *fakeNotificationRepo
	worker        *jobs.Worker
	loanSvc       *LoanService
	paymentSvc    *PaymentService
}

func newServiceFixture() *serviceFixture {
	loans := newFakeLoanRepo()
	installments := newFakeInstallmentRepo()
	users := newFakeUserRepo()
	notifications := &fakeNotificationRepo{}

	repos := &repository.Repositories{
		User:         users,
		Loan:         loans,
		Installment:  installments,
		Notification: notifications,
	}
	uow := &fakeUnitOfWork{repos: repos}
	worker := jobs.NewWorker(1)

	notificationSvc := NewNotificationService(notifications, users)
	emailSvc := NewEmailService(&config.Config{})
	auditSvc := NewAuditService(nil)

	return &serviceFixture{
		loans:         loans,
		installments:  installments,
		users:         users,
		notifications: notifications,
		worker:        worker,
		loanSvc:       NewLoanService(loans, installments, users, uow, notificationSvc, emailSvc, auditSvc, worker),
		paymentSvc:    NewPaymentService(loans, installments, users, uow, notificationSvc, emailSvc, auditSvc, worker),
	}
}
