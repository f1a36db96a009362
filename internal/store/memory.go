package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// In-memory store implementations backing the service and handler tests.
// Each mirrors the ordering and filter semantics of its PostgreSQL
// counterpart.

// MemoryAdminStore is an in-memory AdminStore.
type MemoryAdminStore struct {
	mu     sync.RWMutex
	admins map[string]*model.Admin
}

// NewMemoryAdminStore creates an empty admin store.
func NewMemoryAdminStore() *MemoryAdminStore {
	return &MemoryAdminStore{admins: make(map[string]*model.Admin)}
}

func (s *MemoryAdminStore) Create(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.admins[a.ID] = &cp
	return nil
}

func (s *MemoryAdminStore) GetByID(_ context.Context, id string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAdminStore) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryAdminStore) List(_ context.Context) ([]*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admins := make([]*model.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		cp := *a
		admins = append(admins, &cp)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
	return admins, nil
}

func (s *MemoryAdminStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins), nil
}

func (s *MemoryAdminStore) Update(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	s.admins[a.ID] = &cp
	return nil
}

func (s *MemoryAdminStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return ErrNotFound
	}
	delete(s.admins, id)
	return nil
}

// MemoryTokenStore is an in-memory TokenStore.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	tokens  map[string]*model.AdminToken
	byAdmin map[string]string
}

// NewMemoryTokenStore creates an empty token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens:  make(map[string]*model.AdminToken),
		byAdmin: make(map[string]string),
	}
}

func (s *MemoryTokenStore) Put(_ context.Context, token *model.AdminToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byAdmin[token.AdminID]; ok {
		delete(s.tokens, prev)
	}
	cp := *token
	s.tokens[token.Token] = &cp
	s.byAdmin[token.AdminID] = token.Token
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, token string) (*model.AdminToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok || time.Now().After(t.ExpiresAt) {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryTokenStore) RevokeAdmin(_ context.Context, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.byAdmin[adminID]; ok {
		delete(s.tokens, token)
		delete(s.byAdmin, adminID)
	}
	return nil
}

func (s *MemoryTokenStore) Ping(context.Context) error { return nil }
func (s *MemoryTokenStore) Close() error               { return nil }

// MemoryClientStore is an in-memory ClientStore.
type MemoryClientStore struct {
	mu      sync.RWMutex
	clients map[string]*model.Client
}

// NewMemoryClientStore creates an empty client store.
func NewMemoryClientStore() *MemoryClientStore {
	return &MemoryClientStore{clients: make(map[string]*model.Client)}
}

func (s *MemoryClientStore) Create(_ context.Context, c *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

func (s *MemoryClientStore) GetByID(_ context.Context, id string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryClientStore) GetByRegistrationCode(_ context.Context, code string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.RegistrationCode != "" && c.RegistrationCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryClientStore) List(_ context.Context, filter ClientFilter) ([]*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()

	var clients []*model.Client
	for _, c := range s.clients {
		if filter.AdminID != "" && c.AdminID != filter.AdminID {
			continue
		}
		if filter.SilentSince != nil {
			if !c.IsRegistered {
				continue
			}
			if c.LastHeartbeat != nil && !c.LastHeartbeat.Before(*filter.SilentSince) {
				continue
			}
		}
		if filter.WithLocation && (c.Latitude == nil || c.Longitude == nil) {
			continue
		}
		if filter.Overdue {
			if c.NextPaymentDue == nil || !c.NextPaymentDue.Before(now) || c.OutstandingBalance <= 0 {
				continue
			}
		}
		if filter.WithBalance && c.OutstandingBalance <= 0 {
			continue
		}
		cp := *c
		clients = append(clients, &cp)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})
	return clients, nil
}

func (s *MemoryClientStore) Update(_ context.Context, c *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

func (s *MemoryClientStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *MemoryClientStore) CountByLoanPlan(_ context.Context, planID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.clients {
		if c.LoanPlanID == planID {
			count++
		}
	}
	return count, nil
}

// MemoryLoanPlanStore is an in-memory LoanPlanStore.
type MemoryLoanPlanStore struct {
	mu    sync.RWMutex
	plans map[string]*model.LoanPlan
}

// NewMemoryLoanPlanStore creates an empty loan plan store.
func NewMemoryLoanPlanStore() *MemoryLoanPlanStore {
	return &MemoryLoanPlanStore{plans: make(map[string]*model.LoanPlan)}
}

func (s *MemoryLoanPlanStore) Create(_ context.Context, p *model.LoanPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.plans[p.ID] = &cp
	return nil
}

func (s *MemoryLoanPlanStore) GetByID(_ context.Context, id string) (*model.LoanPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryLoanPlanStore) GetByName(_ context.Context, name string) (*model.LoanPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryLoanPlanStore) ListByAdmin(_ context.Context, adminID string) ([]*model.LoanPlan, error) {
	return s.list(func(p *model.LoanPlan) bool { return p.AdminID == adminID })
}

func (s *MemoryLoanPlanStore) List(context.Context) ([]*model.LoanPlan, error) {
	return s.list(func(*model.LoanPlan) bool { return true })
}

func (s *MemoryLoanPlanStore) list(match func(*model.LoanPlan) bool) ([]*model.LoanPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []*model.LoanPlan
	for _, p := range s.plans {
		if match(p) {
			cp := *p
			plans = append(plans, &cp)
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
	return plans, nil
}

func (s *MemoryLoanPlanStore) Update(_ context.Context, p *model.LoanPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	s.plans[p.ID] = &cp
	return nil
}

func (s *MemoryLoanPlanStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

// MemoryPaymentStore is an in-memory PaymentStore. ListByAdmin needs the
// client store to resolve ownership, mirroring the SQL join.
type MemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*model.Payment
	clients  *MemoryClientStore
}

// NewMemoryPaymentStore creates an empty payment store backed by the given
// client store for admin scoping.
func NewMemoryPaymentStore(clients *MemoryClientStore) *MemoryPaymentStore {
	return &MemoryPaymentStore{
		payments: make(map[string]*model.Payment),
		clients:  clients,
	}
}

func (s *MemoryPaymentStore) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *MemoryPaymentStore) ListByClient(_ context.Context, clientID string) ([]*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []*model.Payment
	for _, p := range s.payments {
		if p.ClientID == clientID {
			cp := *p
			payments = append(payments, &cp)
		}
	}
	sortPaymentsDesc(payments)
	return payments, nil
}

func (s *MemoryPaymentStore) ListByAdmin(ctx context.Context, adminID string, start, end *time.Time) ([]*model.Payment, error) {
	owned, err := s.clients.List(ctx, ClientFilter{AdminID: adminID})
	if err != nil {
		return nil, err
	}
	ownedIDs := make(map[string]bool, len(owned))
	for _, c := range owned {
		ownedIDs[c.ID] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []*model.Payment
	for _, p := range s.payments {
		if !ownedIDs[p.ClientID] {
			continue
		}
		if start != nil && p.PaymentDate.Before(*start) {
			continue
		}
		if end != nil && p.PaymentDate.After(*end) {
			continue
		}
		cp := *p
		payments = append(payments, &cp)
	}
	sortPaymentsDesc(payments)
	return payments, nil
}

func sortPaymentsDesc(payments []*model.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
}

func (s *MemoryPaymentStore) DeleteByClient(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.payments {
		if p.ClientID == clientID {
			delete(s.payments, id)
		}
	}
	return nil
}

// MemoryReminderStore is an in-memory ReminderStore.
type MemoryReminderStore struct {
	mu        sync.RWMutex
	reminders map[string]*model.Reminder
}

// NewMemoryReminderStore creates an empty reminder store.
func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{reminders: make(map[string]*model.Reminder)}
}

func (s *MemoryReminderStore) Create(_ context.Context, r *model.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reminders[r.ID] = &cp
	return nil
}

func (s *MemoryReminderStore) ListByAdmin(_ context.Context, adminID string) ([]*model.Reminder, error) {
	return s.list(func(r *model.Reminder) bool { return r.AdminID == adminID })
}

func (s *MemoryReminderStore) ListByClient(_ context.Context, clientID string) ([]*model.Reminder, error) {
	return s.list(func(r *model.Reminder) bool { return r.ClientID == clientID })
}

func (s *MemoryReminderStore) list(match func(*model.Reminder) bool) ([]*model.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reminders []*model.Reminder
	for _, r := range s.reminders {
		if match(r) {
			cp := *r
			reminders = append(reminders, &cp)
		}
	}
	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].ScheduledDate.After(reminders[j].ScheduledDate)
	})
	return reminders, nil
}

func (s *MemoryReminderStore) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	r.Sent = true
	r.SentAt = &sentAt
	return nil
}

func (s *MemoryReminderStore) HasRecent(_ context.Context, clientID, reminderType string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reminders {
		if r.ClientID == clientID && r.ReminderType == reminderType && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryReminderStore) DeleteByClient(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reminders {
		if r.ClientID == clientID {
			delete(s.reminders, id)
		}
	}
	return nil
}

// MemoryNotificationStore is an in-memory NotificationStore.
type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]*model.Notification
}

// NewMemoryNotificationStore creates an empty notification store.
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{notifications: make(map[string]*model.Notification)}
}

func (s *MemoryNotificationStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *MemoryNotificationStore) ListByAdmin(_ context.Context, adminID string, limit int) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notifications []*model.Notification
	for _, n := range s.notifications {
		if n.AdminID == adminID {
			cp := *n
			notifications = append(notifications, &cp)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (s *MemoryNotificationStore) CountUnread(_ context.Context, adminID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.AdminID == adminID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) MarkRead(_ context.Context, id, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.AdminID != adminID {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (s *MemoryNotificationStore) MarkAllRead(_ context.Context, adminID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, n := range s.notifications {
		if n.AdminID == adminID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

// MemorySupportStore is an in-memory SupportStore.
type MemorySupportStore struct {
	mu       sync.RWMutex
	messages map[string]*model.SupportMessage
}

// NewMemorySupportStore creates an empty support message store.
func NewMemorySupportStore() *MemorySupportStore {
	return &MemorySupportStore{messages: make(map[string]*model.SupportMessage)}
}

func (s *MemorySupportStore) Create(_ context.Context, m *model.SupportMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *MemorySupportStore) ListByClient(_ context.Context, clientID string) ([]*model.SupportMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var messages []*model.SupportMessage
	for _, m := range s.messages {
		if m.ClientID == clientID {
			cp := *m
			messages = append(messages, &cp)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return strings.Compare(messages[i].ID, messages[j].ID) < 0
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (s *MemorySupportStore) MarkClientMessagesRead(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ClientID == clientID && m.Sender == model.SenderClient {
			m.IsRead = true
		}
	}
	return nil
}
