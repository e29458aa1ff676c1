// Package store defines the persistence contract for users, providers, and
// service listings, plus the Postgres and in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"
)

// Service listing lifecycle. Only current services appear in the public
// directory; a draft either becomes current (staff approval) or ends up
// rejected, canceled, or archived.
const (
	StatusDraft    = "draft"
	StatusCurrent  = "current"
	StatusRejected = "rejected"
	StatusCanceled = "canceled"
	StatusArchived = "archived"
)

// Update record kinds, one review ticket per (service, kind).
const (
	UpdateNewService    = "new-service"
	UpdateChangeService = "change-service"
	UpdateCancelDraft   = "cancel-draft-service"
	UpdateCancelCurrent = "cancel-current-service"
)

var (
	ErrNotFound              = errors.New("store: not found")
	ErrDuplicateEmail        = errors.New("store: email already registered")
	ErrDuplicateUpdateRecord = errors.New("store: update record already exists")
)

type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	Role          string
	IsActive      bool
	TokenKey      string
	ActivationKey string
	ResetKey      string
	ResetExpires  time.Time
	CreatedAt     time.Time
	LastLoginAt   time.Time
	LastLoginIP   string
}

type CreateUserParams struct {
	Email         string
	PasswordHash  string
	Role          string
	IsActive      bool
	TokenKey      string
	ActivationKey string
}

type ProviderType struct {
	ID   int64
	Name string
}

type ServiceType struct {
	ID       int64
	Name     string
	Comments string
}

type ServiceArea struct {
	ID       int64
	Name     string
	ParentID int64
}

type Provider struct {
	ID                   int64
	UserID               int64
	TypeID               int64
	Name                 string
	PhoneNumber          string
	Website              string
	Description          string
	MonthlyBeneficiaries int
}

type Service struct {
	ID             int64
	ProviderID     int64
	TypeID         int64
	AreaID         int64
	Name           string
	Description    string
	AdditionalInfo string
	Cost           string
	Status         string
	UpdateOfID     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type UpdateRecord struct {
	ID        int64
	ServiceID int64
	Kind      string
	Notified  bool
	CreatedAt time.Time
}

// Store is the full persistence surface consumed by the HTTP handlers, the
// directory lifecycle logic, and the notifier loop.
type Store interface {
	UserStore
	ProviderStore
	ServiceStore
	UpdateRecordStore
}

type UserStore interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByToken(ctx context.Context, tokenKey string) (User, error)
	GetUserByActivationKey(ctx context.Context, key string) (User, error)
	GetUserByResetKey(ctx context.Context, key string) (User, error)
	// ActivateUser marks the user active and consumes the activation key.
	ActivateUser(ctx context.Context, id int64) error
	SetActivationKey(ctx context.Context, id int64, key string) error
	SetResetKey(ctx context.Context, id int64, key string, expires time.Time) error
	// UpdatePassword replaces the hash and consumes any reset key.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLoginMeta(ctx context.Context, id int64, at time.Time, ip string) error
	CountStaffUsers(ctx context.Context) (int64, error)
}

type ProviderStore interface {
	CreateProvider(ctx context.Context, provider Provider) (Provider, error)
	GetProvider(ctx context.Context, id int64) (Provider, error)
	GetProviderByUser(ctx context.Context, userID int64) (Provider, error)
	ListProviders(ctx context.Context) ([]Provider, error)
	ListProviderTypes(ctx context.Context) ([]ProviderType, error)
	ListServiceTypes(ctx context.Context) ([]ServiceType, error)
	ListServiceAreas(ctx context.Context) ([]ServiceArea, error)
}

type ServiceStore interface {
	CreateService(ctx context.Context, service Service) (Service, error)
	GetService(ctx context.Context, id int64) (Service, error)
	UpdateServiceStatus(ctx context.Context, id int64, status string) error
	ClearServiceUpdateOf(ctx context.Context, id int64) error
	ListServicesByProvider(ctx context.Context, providerID int64) ([]Service, error)
	ListServicesByStatus(ctx context.Context, status string) ([]Service, error)
	// ListDraftUpdatesOf returns draft services that update the given
	// record, excluding excludeID (0 excludes nothing).
	ListDraftUpdatesOf(ctx context.Context, updateOfID, excludeID int64) ([]Service, error)
}

type UpdateRecordStore interface {
	CreateUpdateRecord(ctx context.Context, serviceID int64, kind string) (UpdateRecord, error)
	ListPendingUpdateRecords(ctx context.Context, limit int32) ([]UpdateRecord, error)
	MarkUpdateRecordNotified(ctx context.Context, id int64) error
}
