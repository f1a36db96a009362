package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/algorithm"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// SweepResult summarizes one late-fee sweep.
type SweepResult struct {
	Processed     int     `json:"processed"`
	TotalLateFees float64 `json:"total_late_fees"`
	Locked        int     `json:"locked"`
}

// SweepService runs the periodic loan enforcement: late fee accrual, overdue
// day tracking, auto-lock past the grace period and reminder creation.
type SweepService struct {
	clients   store.ClientStore
	plans     store.LoanPlanStore
	reminders *ReminderService
	interval  time.Duration
	logger    *zap.Logger
	stop      chan struct{}
	done      chan struct{}
}

// NewSweepService creates a sweep service.
func NewSweepService(clients store.ClientStore, plans store.LoanPlanStore, reminders *ReminderService, interval time.Duration, logger *zap.Logger) *SweepService {
	return &SweepService{
		clients:   clients,
		plans:     plans,
		reminders: reminders,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context is
// cancelled. An initial sweep runs immediately.
func (s *SweepService) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		s.runOnce(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("sweep service started", zap.Duration("interval", s.interval))
}

// Stop halts the sweep loop and waits for the current run to finish.
func (s *SweepService) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info("sweep service stopped")
}

func (s *SweepService) runOnce(ctx context.Context) {
	if _, err := s.CalculateLateFees(ctx); err != nil {
		s.logger.Error("late fee sweep failed", zap.Error(err))
	}
	if _, err := s.reminders.Sweep(ctx); err != nil {
		s.logger.Error("reminder sweep failed", zap.Error(err))
	}
}

// CalculateLateFees recomputes the overdue position of every client with a
// balance: days overdue, the accumulated late fee on the monthly EMI at the
// plan's late fee percent, and the auto-lock once the grace period is spent.
// Also backs the manual trigger endpoint.
func (s *SweepService) CalculateLateFees(ctx context.Context) (*SweepResult, error) {
	clients, err := s.clients.List(ctx, store.ClientFilter{Overdue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue clients: %w", err)
	}

	result := &SweepResult{}
	now := time.Now().UTC()
	for _, c := range clients {
		if c.NextPaymentDue == nil {
			continue
		}

		daysOverdue := int(now.Sub(*c.NextPaymentDue).Hours() / 24)
		if daysOverdue <= 0 {
			continue
		}

		lateFeePercent := s.lateFeePercent(ctx, c)
		fee := algorithm.LateFee(c.MonthlyEMI, lateFeePercent, daysOverdue)

		changed := c.DaysOverdue != daysOverdue || c.LateFeesAccumulated != fee
		c.DaysOverdue = daysOverdue
		c.LateFeesAccumulated = fee

		if c.AutoLockEnabled && !c.IsLocked && daysOverdue > c.AutoLockGraceDays {
			c.IsLocked = true
			if c.LockMessage == "" {
				c.LockMessage = model.DefaultLockMessage
			}
			changed = true
			result.Locked++
			s.logger.Warn("device auto-locked",
				zap.String("client_id", c.ID),
				zap.Int("days_overdue", daysOverdue),
				zap.Int("grace_days", c.AutoLockGraceDays))
		}

		if changed {
			if err := s.clients.Update(ctx, c); err != nil {
				return result, fmt.Errorf("failed to update client %s: %w", c.ID, err)
			}
		}

		result.Processed++
		result.TotalLateFees = algorithm.Round2(result.TotalLateFees + fee)
	}

	if result.Processed > 0 {
		s.logger.Info("late fee sweep complete",
			zap.Int("processed", result.Processed),
			zap.Float64("total_late_fees", result.TotalLateFees),
			zap.Int("locked", result.Locked))
	}
	return result, nil
}

func (s *SweepService) lateFeePercent(ctx context.Context, c *model.Client) float64 {
	if c.LoanPlanID == "" {
		return algorithm.DefaultLateFeePercent
	}
	plan, err := s.plans.GetByID(ctx, c.LoanPlanID)
	if stderrors.Is(err, store.ErrNotFound) {
		return algorithm.DefaultLateFeePercent
	}
	if err != nil {
		s.logger.Error("failed to load loan plan", zap.Error(err))
		return algorithm.DefaultLateFeePercent
	}
	return plan.LateFeePercent
}
