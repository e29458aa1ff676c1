package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/providerhub/providerhub/internal/auth"
)

// Memory is the in-process Store used by tests and by handler fakes. All
// methods copy values in and out, so callers never share struct memory with
// the store.
type Memory struct {
	mu sync.Mutex

	nextID        int64
	users         map[int64]User
	providers     map[int64]Provider
	services      map[int64]Service
	updateRecords map[int64]UpdateRecord

	providerTypes []ProviderType
	serviceTypes  []ServiceType
	serviceAreas  []ServiceArea
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		nextID:        1,
		users:         map[int64]User{},
		providers:     map[int64]Provider{},
		services:      map[int64]Service{},
		updateRecords: map[int64]UpdateRecord{},
	}
}

// SeedLookups installs the reference tables that migrations seed in
// Postgres.
func (m *Memory) SeedLookups(providerTypes []ProviderType, serviceTypes []ServiceType, areas []ServiceArea) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerTypes = append([]ProviderType(nil), providerTypes...)
	m.serviceTypes = append([]ServiceType(nil), serviceTypes...)
	m.serviceAreas = append([]ServiceArea(nil), areas...)
}

func (m *Memory) allocID() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Memory) CreateUser(_ context.Context, params CreateUserParams) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == params.Email {
			return User{}, ErrDuplicateEmail
		}
	}

	user := User{
		ID:            m.allocID(),
		Email:         params.Email,
		PasswordHash:  params.PasswordHash,
		Role:          params.Role,
		IsActive:      params.IsActive,
		TokenKey:      params.TokenKey,
		ActivationKey: params.ActivationKey,
		CreatedAt:     time.Now(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (User, error) {
	return m.findUser(func(u User) bool { return u.Email == email })
}

func (m *Memory) GetUserByToken(_ context.Context, tokenKey string) (User, error) {
	if tokenKey == "" {
		return User{}, ErrNotFound
	}
	return m.findUser(func(u User) bool { return u.TokenKey == tokenKey })
}

func (m *Memory) GetUserByActivationKey(_ context.Context, key string) (User, error) {
	if key == "" {
		return User{}, ErrNotFound
	}
	return m.findUser(func(u User) bool { return u.ActivationKey == key })
}

func (m *Memory) GetUserByResetKey(_ context.Context, key string) (User, error) {
	if key == "" {
		return User{}, ErrNotFound
	}
	return m.findUser(func(u User) bool { return u.ResetKey == key })
}

func (m *Memory) findUser(match func(User) bool) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *Memory) ActivateUser(_ context.Context, id int64) error {
	return m.mutateUser(id, func(u *User) {
		u.IsActive = true
		u.ActivationKey = ""
	})
}

func (m *Memory) SetActivationKey(_ context.Context, id int64, key string) error {
	return m.mutateUser(id, func(u *User) { u.ActivationKey = key })
}

func (m *Memory) SetResetKey(_ context.Context, id int64, key string, expires time.Time) error {
	return m.mutateUser(id, func(u *User) {
		u.ResetKey = key
		u.ResetExpires = expires
	})
}

func (m *Memory) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return m.mutateUser(id, func(u *User) {
		u.PasswordHash = passwordHash
		u.ResetKey = ""
		u.ResetExpires = time.Time{}
	})
}

func (m *Memory) UpdateLoginMeta(_ context.Context, id int64, at time.Time, ip string) error {
	return m.mutateUser(id, func(u *User) {
		u.LastLoginAt = at
		u.LastLoginIP = ip
	})
}

func (m *Memory) mutateUser(id int64, mutate func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	mutate(&user)
	m.users[id] = user
	return nil
}

func (m *Memory) CountStaffUsers(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, u := range m.users {
		if u.Role == auth.RoleStaff && u.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CreateProvider(_ context.Context, provider Provider) (Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	provider.ID = m.allocID()
	m.providers[provider.ID] = provider
	return provider, nil
}

func (m *Memory) GetProvider(_ context.Context, id int64) (Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	provider, ok := m.providers[id]
	if !ok {
		return Provider{}, ErrNotFound
	}
	return provider, nil
}

func (m *Memory) GetProviderByUser(_ context.Context, userID int64) (Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return Provider{}, ErrNotFound
}

func (m *Memory) ListProviders(_ context.Context) ([]Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Provider, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListProviderTypes(_ context.Context) ([]ProviderType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProviderType(nil), m.providerTypes...), nil
}

func (m *Memory) ListServiceTypes(_ context.Context) ([]ServiceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ServiceType(nil), m.serviceTypes...), nil
}

func (m *Memory) ListServiceAreas(_ context.Context) ([]ServiceArea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ServiceArea(nil), m.serviceAreas...), nil
}

func (m *Memory) CreateService(_ context.Context, service Service) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	service.ID = m.allocID()
	now := time.Now()
	service.CreatedAt = now
	service.UpdatedAt = now
	m.services[service.ID] = service
	return service, nil
}

func (m *Memory) GetService(_ context.Context, id int64) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	service, ok := m.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return service, nil
}

func (m *Memory) UpdateServiceStatus(_ context.Context, id int64, status string) error {
	return m.mutateService(id, func(s *Service) { s.Status = status })
}

func (m *Memory) ClearServiceUpdateOf(_ context.Context, id int64) error {
	return m.mutateService(id, func(s *Service) { s.UpdateOfID = 0 })
}

func (m *Memory) mutateService(id int64, mutate func(*Service)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	service, ok := m.services[id]
	if !ok {
		return ErrNotFound
	}
	mutate(&service)
	service.UpdatedAt = time.Now()
	m.services[id] = service
	return nil
}

func (m *Memory) ListServicesByProvider(_ context.Context, providerID int64) ([]Service, error) {
	return m.listServices(func(s Service) bool { return s.ProviderID == providerID }), nil
}

func (m *Memory) ListServicesByStatus(_ context.Context, status string) ([]Service, error) {
	return m.listServices(func(s Service) bool { return s.Status == status }), nil
}

func (m *Memory) ListDraftUpdatesOf(_ context.Context, updateOfID, excludeID int64) ([]Service, error) {
	return m.listServices(func(s Service) bool {
		return s.Status == StatusDraft && s.UpdateOfID == updateOfID && s.ID != excludeID
	}), nil
}

func (m *Memory) listServices(match func(Service) bool) []Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Service
	for _, s := range m.services {
		if match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) CreateUpdateRecord(_ context.Context, serviceID int64, kind string) (UpdateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.updateRecords {
		if r.ServiceID == serviceID && r.Kind == kind {
			return UpdateRecord{}, ErrDuplicateUpdateRecord
		}
	}
	record := UpdateRecord{
		ID:        m.allocID(),
		ServiceID: serviceID,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	m.updateRecords[record.ID] = record
	return record, nil
}

func (m *Memory) ListPendingUpdateRecords(_ context.Context, limit int32) ([]UpdateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UpdateRecord
	for _, r := range m.updateRecords {
		if !r.Notified {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) MarkUpdateRecordNotified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.updateRecords[id]
	if !ok {
		return ErrNotFound
	}
	record.Notified = true
	m.updateRecords[id] = record
	return nil
}
