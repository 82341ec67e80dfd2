package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

// DeviceSessionStore keeps device sessions per account behind one mutex,
// which gives the same per-account serialization the postgres store gets
// from its advisory lock.
type DeviceSessionStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]models.DeviceSession // account_id -> device_id
	Now      func() time.Time
}

func NewDeviceSessionStore() *DeviceSessionStore {
	return &DeviceSessionStore{
		sessions: make(map[string]map[string]models.DeviceSession),
		Now:      time.Now,
	}
}

func (s *DeviceSessionStore) AdmitHeartbeat(ctx context.Context, sess models.DeviceSession, maxDevices int, window time.Duration) (models.AdmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	active := s.activeLocked(sess.AccountID, now, window)

	others := 0
	present := false
	for _, a := range active {
		if a.DeviceID == sess.DeviceID {
			present = true
		} else {
			others++
		}
	}

	if !present && others >= maxDevices {
		return models.AdmitResult{Admitted: false, Active: active}, nil
	}

	byDevice := s.sessions[sess.AccountID]
	if byDevice == nil {
		byDevice = make(map[string]models.DeviceSession)
		s.sessions[sess.AccountID] = byDevice
	}

	stored, ok := byDevice[sess.DeviceID]
	if !ok {
		stored = sess
		stored.CreatedAt = now
	}
	stored.DeviceLabel = sess.DeviceLabel
	stored.DeviceClass = sess.DeviceClass
	stored.LastActiveAt = now
	byDevice[sess.DeviceID] = stored

	return models.AdmitResult{
		Admitted: true,
		Active:   s.activeLocked(sess.AccountID, now, window),
	}, nil
}

func (s *DeviceSessionStore) ListActive(ctx context.Context, accountID string, window time.Duration) ([]models.DeviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(accountID, s.Now(), window), nil
}

func (s *DeviceSessionStore) Delete(ctx context.Context, accountID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions[accountID], deviceID)
	return nil
}

func (s *DeviceSessionStore) DeleteAllExcept(ctx context.Context, accountID, keepDeviceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for deviceID := range s.sessions[accountID] {
		if deviceID != keepDeviceID {
			delete(s.sessions[accountID], deviceID)
			removed++
		}
	}
	return removed, nil
}

func (s *DeviceSessionStore) PruneIdle(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for accountID, byDevice := range s.sessions {
		for deviceID, sess := range byDevice {
			if sess.LastActiveAt.Before(olderThan) {
				delete(byDevice, deviceID)
				removed++
			}
		}
		if len(byDevice) == 0 {
			delete(s.sessions, accountID)
		}
	}
	return removed, nil
}

func (s *DeviceSessionStore) activeLocked(accountID string, now time.Time, window time.Duration) []models.DeviceSession {
	var active []models.DeviceSession
	for _, sess := range s.sessions[accountID] {
		if sess.ActiveAt(now, window) {
			active = append(active, sess)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].LastActiveAt.After(active[j].LastActiveAt)
	})
	return active
}
