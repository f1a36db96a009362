package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/algorithm"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// ReportService aggregates loan and payment data for the reporting screens.
type ReportService struct {
	clients  store.ClientStore
	payments store.PaymentStore
	logger   *zap.Logger
}

// NewReportService creates a report service.
func NewReportService(clients store.ClientStore, payments store.PaymentStore, logger *zap.Logger) *ReportService {
	return &ReportService{clients: clients, payments: payments, logger: logger}
}

// CollectionReport summarizes the loan book.
type CollectionReport struct {
	TotalDisbursed     float64 `json:"total_disbursed"`
	TotalCollected     float64 `json:"total_collected"`
	TotalOutstanding   float64 `json:"total_outstanding"`
	CollectionRate     float64 `json:"collection_rate"`
	ActiveLoans        int     `json:"active_loans"`
	CompletedLoans     int     `json:"completed_loans"`
	OverdueLoans       int     `json:"overdue_loans"`
	TotalLateFees      float64 `json:"total_late_fees"`
	TotalClients       int     `json:"total_clients"`
}

// Collection builds the collection report over the actor's clients.
func (s *ReportService) Collection(ctx context.Context, actor *model.Admin) (*CollectionReport, error) {
	clients, err := s.listClients(ctx, actor)
	if err != nil {
		return nil, err
	}

	report := &CollectionReport{TotalClients: len(clients)}
	now := time.Now()
	for _, c := range clients {
		if c.LoanStartDate == nil {
			continue
		}
		report.TotalDisbursed += c.LoanAmount
		report.TotalCollected += c.TotalPaid
		report.TotalOutstanding += c.OutstandingBalance
		report.TotalLateFees += c.LateFeesAccumulated

		switch {
		case c.OutstandingBalance <= 0:
			report.CompletedLoans++
		case c.NextPaymentDue != nil && c.NextPaymentDue.Before(now):
			report.OverdueLoans++
			report.ActiveLoans++
		default:
			report.ActiveLoans++
		}
	}

	if report.TotalDisbursed > 0 {
		report.CollectionRate = algorithm.Round2(report.TotalCollected / report.TotalDisbursed * 100)
	}
	report.TotalDisbursed = algorithm.Round2(report.TotalDisbursed)
	report.TotalCollected = algorithm.Round2(report.TotalCollected)
	report.TotalOutstanding = algorithm.Round2(report.TotalOutstanding)
	report.TotalLateFees = algorithm.Round2(report.TotalLateFees)
	return report, nil
}

// ClientRow is one flat row of the per-client report.
type ClientRow struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	LoanAmount         float64    `json:"loan_amount"`
	TotalPaid          float64    `json:"total_paid"`
	OutstandingBalance float64    `json:"outstanding_balance"`
	MonthlyEMI         float64    `json:"monthly_emi"`
	NextPaymentDue     *time.Time `json:"next_payment_due,omitempty"`
	DaysOverdue        int        `json:"days_overdue"`
	IsLocked           bool       `json:"is_locked"`
	IsRegistered       bool       `json:"is_registered"`
}

// Clients builds the flat per-client report.
func (s *ReportService) Clients(ctx context.Context, actor *model.Admin) ([]ClientRow, error) {
	clients, err := s.listClients(ctx, actor)
	if err != nil {
		return nil, err
	}

	rows := make([]ClientRow, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, ClientRow{
			ID:                 c.ID,
			Name:               c.Name,
			Phone:              c.Phone,
			LoanAmount:         c.LoanAmount,
			TotalPaid:          c.TotalPaid,
			OutstandingBalance: c.OutstandingBalance,
			MonthlyEMI:         c.MonthlyEMI,
			NextPaymentDue:     c.NextPaymentDue,
			DaysOverdue:        c.DaysOverdue,
			IsLocked:           c.IsLocked,
			IsRegistered:       c.IsRegistered,
		})
	}
	return rows, nil
}

// MonthlyTotal is one month of the financial breakdown.
type MonthlyTotal struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// FinancialReport summarizes payments over a period.
type FinancialReport struct {
	StartDate        string         `json:"start_date,omitempty"`
	EndDate          string         `json:"end_date,omitempty"`
	TotalPayments    float64        `json:"total_payments"`
	PaymentCount     int            `json:"payment_count"`
	TotalLateFees    float64        `json:"total_late_fees"`
	TotalProcessing  float64        `json:"total_processing_fees"`
	MonthlyBreakdown []MonthlyTotal `json:"monthly_breakdown"`
}

// Financial builds the payment report, optionally bounded by YYYY-MM-DD
// start and end dates.
func (s *ReportService) Financial(ctx context.Context, actor *model.Admin, startDate, endDate string) (*FinancialReport, error) {
	var start, end *time.Time
	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return nil, errors.Validation("start_date must be YYYY-MM-DD")
		}
		start = &t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return nil, errors.Validation("end_date must be YYYY-MM-DD")
		}
		// Inclusive end of day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		end = &t
	}

	adminID := actor.ID
	if actor.IsSuperAdmin {
		adminID = ""
	}
	var payments []*model.Payment
	var err error
	if adminID == "" {
		// The super admin sees the whole book: aggregate over all clients.
		payments, err = s.allPayments(ctx, start, end)
	} else {
		payments, err = s.payments.ListByAdmin(ctx, adminID, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	report := &FinancialReport{StartDate: startDate, EndDate: endDate}
	byMonth := make(map[string]*MonthlyTotal)
	for _, p := range payments {
		report.TotalPayments += p.Amount
		report.PaymentCount++

		key := p.PaymentDate.Format("2006-01")
		if byMonth[key] == nil {
			byMonth[key] = &MonthlyTotal{Month: key}
		}
		byMonth[key].Amount = algorithm.Round2(byMonth[key].Amount + p.Amount)
		byMonth[key].Count++
	}
	report.TotalPayments = algorithm.Round2(report.TotalPayments)

	clients, err := s.listClients(ctx, actor)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		report.TotalLateFees += c.LateFeesAccumulated
		report.TotalProcessing += c.ProcessingFee
	}
	report.TotalLateFees = algorithm.Round2(report.TotalLateFees)
	report.TotalProcessing = algorithm.Round2(report.TotalProcessing)

	report.MonthlyBreakdown = sortedMonthlyTotals(byMonth)
	return report, nil
}

func sortedMonthlyTotals(byMonth map[string]*MonthlyTotal) []MonthlyTotal {
	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	// Months are YYYY-MM strings so lexical order is chronological.
	sort.Strings(keys)
	totals := make([]MonthlyTotal, 0, len(keys))
	for _, k := range keys {
		totals = append(totals, *byMonth[k])
	}
	return totals
}

func (s *ReportService) allPayments(ctx context.Context, start, end *time.Time) ([]*model.Payment, error) {
	clients, err := s.clients.List(ctx, store.ClientFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	var payments []*model.Payment
	for _, c := range clients {
		list, err := s.payments.ListByClient(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			if start != nil && p.PaymentDate.Before(*start) {
				continue
			}
			if end != nil && p.PaymentDate.After(*end) {
				continue
			}
			payments = append(payments, p)
		}
	}
	return payments, nil
}

// Stats counts the actor's clients by state.
type Stats struct {
	TotalClients        int `json:"total_clients"`
	RegisteredClients   int `json:"registered_clients"`
	LockedClients       int `json:"locked_clients"`
	UnregisteredClients int `json:"unregistered_clients"`
}

// Stats returns the client counts shown on the dashboard header.
func (s *ReportService) Stats(ctx context.Context, actor *model.Admin) (*Stats, error) {
	clients, err := s.listClients(ctx, actor)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalClients: len(clients)}
	for _, c := range clients {
		if c.IsRegistered {
			stats.RegisteredClients++
		} else {
			stats.UnregisteredClients++
		}
		if c.IsLocked {
			stats.LockedClients++
		}
	}
	return stats, nil
}

// DayActivity is one day of the recent activity chart.
type DayActivity struct {
	Date     string  `json:"date"`
	Payments int     `json:"payments"`
	Amount   float64 `json:"amount"`
}

// RegistrationEntry is one row of the recent registration log.
type RegistrationEntry struct {
	ClientID     string    `json:"client_id"`
	Name         string    `json:"name"`
	DeviceModel  string    `json:"device_model,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Dashboard is the analytics overview screen payload.
type Dashboard struct {
	Overview            *Stats              `json:"overview"`
	Financial           *CollectionReport   `json:"financial"`
	WeeklyActivity      []DayActivity       `json:"weekly_activity"`
	RevenueTrend        []MonthlyTotal      `json:"revenue_trend"`
	RecentRegistrations []RegistrationEntry `json:"recent_registrations"`
}

// Dashboard aggregates the analytics screen: counts, financial summary,
// 7-day payment activity, 6-month revenue trend and recent registrations.
func (s *ReportService) Dashboard(ctx context.Context, actor *model.Admin) (*Dashboard, error) {
	stats, err := s.Stats(ctx, actor)
	if err != nil {
		return nil, err
	}
	financial, err := s.Collection(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	weekStart := truncateToDay(now).AddDate(0, 0, -6)
	trendStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)

	adminID := actor.ID
	if actor.IsSuperAdmin {
		adminID = ""
	}
	var payments []*model.Payment
	if adminID == "" {
		payments, err = s.allPayments(ctx, &trendStart, nil)
	} else {
		payments, err = s.payments.ListByAdmin(ctx, adminID, &trendStart, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	// Seed the 7 days so quiet days still chart as zero.
	week := make([]DayActivity, 7)
	dayIndex := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		week[i] = DayActivity{Date: date}
		dayIndex[date] = i
	}

	byMonth := make(map[string]*MonthlyTotal)
	for i := 0; i < 6; i++ {
		key := trendStart.AddDate(0, i, 0).Format("2006-01")
		byMonth[key] = &MonthlyTotal{Month: key}
	}

	for _, p := range payments {
		day := p.PaymentDate.UTC().Format("2006-01-02")
		if i, ok := dayIndex[day]; ok {
			week[i].Payments++
			week[i].Amount = algorithm.Round2(week[i].Amount + p.Amount)
		}
		month := p.PaymentDate.UTC().Format("2006-01")
		if t, ok := byMonth[month]; ok {
			t.Amount = algorithm.Round2(t.Amount + p.Amount)
			t.Count++
		}
	}

	clients, err := s.listClients(ctx, actor)
	if err != nil {
		return nil, err
	}
	var registrations []RegistrationEntry
	for _, c := range clients {
		if c.RegisteredAt == nil {
			continue
		}
		registrations = append(registrations, RegistrationEntry{
			ClientID:     c.ID,
			Name:         c.Name,
			DeviceModel:  c.DeviceModel,
			RegisteredAt: *c.RegisteredAt,
		})
	}
	// Newest first, capped at 10.
	sort.Slice(registrations, func(i, j int) bool {
		return registrations[i].RegisteredAt.After(registrations[j].RegisteredAt)
	})
	if len(registrations) > 10 {
		registrations = registrations[:10]
	}

	return &Dashboard{
		Overview:            stats,
		Financial:           financial,
		WeeklyActivity:      week,
		RevenueTrend:        sortedMonthlyTotals(byMonth),
		RecentRegistrations: registrations,
	}, nil
}

func (s *ReportService) listClients(ctx context.Context, actor *model.Admin) ([]*model.Client, error) {
	filter := store.ClientFilter{AdminID: actor.ID}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
