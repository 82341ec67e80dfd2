// Package memory provides in-memory implementations of the record stores,
// used by the test suites and for running the service without postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/repository"
)

type SubscriptionStore struct {
	mu   sync.RWMutex
	rows map[string][]models.Subscription
	Now  func() time.Time
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		rows: make(map[string][]models.Subscription),
		Now:  time.Now,
	}
}

func (s *SubscriptionStore) Put(sub models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sub.AccountID] = append(s.rows[sub.AccountID], sub)
}

func (s *SubscriptionStore) Current(ctx context.Context, accountID string) (models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.Now()
	var current models.Subscription
	found := false
	for _, sub := range s.rows[accountID] {
		if !sub.ActiveAt(now) {
			continue
		}
		if !found || sub.StartDate.After(current.StartDate) {
			current = sub
			found = true
		}
	}
	if !found {
		return models.Subscription{}, repository.ErrSubscriptionNotFound
	}
	return current, nil
}

type RentalStore struct {
	mu   sync.RWMutex
	rows map[string][]models.Rental
	Now  func() time.Time
}

func NewRentalStore() *RentalStore {
	return &RentalStore{
		rows: make(map[string][]models.Rental),
		Now:  time.Now,
	}
}

func (s *RentalStore) Put(rental models.Rental) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rental.AccountID] = append(s.rows[rental.AccountID], rental)
}

func (s *RentalStore) ForContent(ctx context.Context, accountID, contentID, contentType string) (models.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.Now()
	for _, rental := range s.rows[accountID] {
		if rental.ContentID == contentID && rental.ContentType == contentType && rental.ActiveAt(now) {
			return rental, nil
		}
	}
	return models.Rental{}, repository.ErrRentalNotFound
}

type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]models.Plan
}

func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]models.Plan)}
}

func (s *PlanStore) Put(plan models.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
}

func (s *PlanStore) Get(ctx context.Context, planID string) (models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planID]
	if !ok {
		return models.Plan{}, repository.ErrPlanNotFound
	}
	return plan, nil
}
