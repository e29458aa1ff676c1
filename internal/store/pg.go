package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PG is the pgx-backed Store.
type PG struct {
	pool *pgxpool.Pool
}

var _ Store = (*PG)(nil)

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

const userColumns = `id, email, password_hash, role, is_active, token_key,
	coalesce(activation_key, ''), coalesce(reset_key, ''), reset_expires,
	created_at, last_login_at, coalesce(last_login_ip, '')`

func scanUser(row pgx.Row) (User, error) {
	var (
		u            User
		resetExpires pgtype.Timestamptz
		lastLoginAt  pgtype.Timestamptz
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TokenKey, &u.ActivationKey, &u.ResetKey, &resetExpires,
		&u.CreatedAt, &lastLoginAt, &u.LastLoginIP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if resetExpires.Valid {
		u.ResetExpires = resetExpires.Time
	}
	if lastLoginAt.Valid {
		u.LastLoginAt = lastLoginAt.Time
	}
	return u, nil
}

func (p *PG) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role, is_active, token_key, activation_key)
		VALUES ($1, $2, $3, $4, $5, nullif($6, ''))
		RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.Role, params.IsActive,
		params.TokenKey, params.ActivationKey)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

func (p *PG) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *PG) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (p *PG) GetUserByToken(ctx context.Context, tokenKey string) (User, error) {
	if tokenKey == "" {
		return User{}, ErrNotFound
	}
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE token_key = $1`, tokenKey))
}

func (p *PG) GetUserByActivationKey(ctx context.Context, key string) (User, error) {
	if key == "" {
		return User{}, ErrNotFound
	}
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE activation_key = $1`, key))
}

func (p *PG) GetUserByResetKey(ctx context.Context, key string) (User, error) {
	if key == "" {
		return User{}, ErrNotFound
	}
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_key = $1`, key))
}

func (p *PG) ActivateUser(ctx context.Context, id int64) error {
	return p.execUser(ctx,
		`UPDATE users SET is_active = true, activation_key = NULL WHERE id = $1`, id)
}

func (p *PG) SetActivationKey(ctx context.Context, id int64, key string) error {
	return p.execUser(ctx,
		`UPDATE users SET activation_key = nullif($2, '') WHERE id = $1`, id, key)
}

func (p *PG) SetResetKey(ctx context.Context, id int64, key string, expires time.Time) error {
	return p.execUser(ctx,
		`UPDATE users SET reset_key = nullif($2, ''), reset_expires = $3 WHERE id = $1`,
		id, key, expires)
}

func (p *PG) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return p.execUser(ctx,
		`UPDATE users SET password_hash = $2, reset_key = NULL, reset_expires = NULL WHERE id = $1`,
		id, passwordHash)
}

func (p *PG) UpdateLoginMeta(ctx context.Context, id int64, at time.Time, ip string) error {
	return p.execUser(ctx,
		`UPDATE users SET last_login_at = $2, last_login_ip = nullif($3, '') WHERE id = $1`,
		id, at, ip)
}

func (p *PG) execUser(ctx context.Context, sql string, args ...any) error {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PG) CountStaffUsers(ctx context.Context) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE role = 'staff' AND is_active`).Scan(&count)
	return count, err
}

const providerColumns = `id, user_id, type_id, name, phone_number,
	coalesce(website, ''), coalesce(description, ''), monthly_beneficiaries`

func scanProvider(row pgx.Row) (Provider, error) {
	var pr Provider
	err := row.Scan(&pr.ID, &pr.UserID, &pr.TypeID, &pr.Name, &pr.PhoneNumber,
		&pr.Website, &pr.Description, &pr.MonthlyBeneficiaries)
	if errors.Is(err, pgx.ErrNoRows) {
		return Provider{}, ErrNotFound
	}
	return pr, err
}

func (p *PG) CreateProvider(ctx context.Context, provider Provider) (Provider, error) {
	return scanProvider(p.pool.QueryRow(ctx, `
		INSERT INTO providers (user_id, type_id, name, phone_number, website, description, monthly_beneficiaries)
		VALUES ($1, $2, $3, $4, nullif($5, ''), nullif($6, ''), $7)
		RETURNING `+providerColumns,
		provider.UserID, provider.TypeID, provider.Name, provider.PhoneNumber,
		provider.Website, provider.Description, provider.MonthlyBeneficiaries))
}

func (p *PG) GetProvider(ctx context.Context, id int64) (Provider, error) {
	return scanProvider(p.pool.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = $1`, id))
}

func (p *PG) GetProviderByUser(ctx context.Context, userID int64) (Provider, error) {
	return scanProvider(p.pool.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE user_id = $1`, userID))
}

func (p *PG) ListProviders(ctx context.Context) ([]Provider, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM providers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	return out, rows.Err()
}

func (p *PG) ListProviderTypes(ctx context.Context) ([]ProviderType, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name FROM provider_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProviderType
	for rows.Next() {
		var pt ProviderType
		if err := rows.Scan(&pt.ID, &pt.Name); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (p *PG) ListServiceTypes(ctx context.Context) ([]ServiceType, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, coalesce(comments, '') FROM service_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceType
	for rows.Next() {
		var st ServiceType
		if err := rows.Scan(&st.ID, &st.Name, &st.Comments); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (p *PG) ListServiceAreas(ctx context.Context) ([]ServiceArea, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, coalesce(parent_id, 0) FROM service_areas ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceArea
	for rows.Next() {
		var sa ServiceArea
		if err := rows.Scan(&sa.ID, &sa.Name, &sa.ParentID); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

const serviceColumns = `id, provider_id, type_id, area_id, name,
	coalesce(description, ''), coalesce(additional_info, ''), coalesce(cost, ''),
	status, coalesce(update_of_id, 0), created_at, updated_at`

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.TypeID, &s.AreaID, &s.Name,
		&s.Description, &s.AdditionalInfo, &s.Cost, &s.Status, &s.UpdateOfID,
		&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrNotFound
	}
	return s, err
}

func (p *PG) CreateService(ctx context.Context, service Service) (Service, error) {
	return scanService(p.pool.QueryRow(ctx, `
		INSERT INTO services (provider_id, type_id, area_id, name, description,
			additional_info, cost, status, update_of_id)
		VALUES ($1, $2, $3, $4, nullif($5, ''), nullif($6, ''), nullif($7, ''), $8, nullif($9, 0))
		RETURNING `+serviceColumns,
		service.ProviderID, service.TypeID, service.AreaID, service.Name,
		service.Description, service.AdditionalInfo, service.Cost,
		service.Status, service.UpdateOfID))
}

func (p *PG) GetService(ctx context.Context, id int64) (Service, error) {
	return scanService(p.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

func (p *PG) UpdateServiceStatus(ctx context.Context, id int64, status string) error {
	return p.execUser(ctx,
		`UPDATE services SET status = $2, updated_at = now() WHERE id = $1`, id, status)
}

func (p *PG) ClearServiceUpdateOf(ctx context.Context, id int64) error {
	return p.execUser(ctx,
		`UPDATE services SET update_of_id = NULL, updated_at = now() WHERE id = $1`, id)
}

func (p *PG) ListServicesByProvider(ctx context.Context, providerID int64) ([]Service, error) {
	return p.listServices(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE provider_id = $1 ORDER BY id`, providerID)
}

func (p *PG) ListServicesByStatus(ctx context.Context, status string) ([]Service, error) {
	return p.listServices(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE status = $1 ORDER BY id`, status)
}

func (p *PG) ListDraftUpdatesOf(ctx context.Context, updateOfID, excludeID int64) ([]Service, error) {
	return p.listServices(ctx, `
		SELECT `+serviceColumns+` FROM services
		WHERE status = 'draft' AND update_of_id = $1 AND id <> $2
		ORDER BY id`, updateOfID, excludeID)
}

func (p *PG) listServices(ctx context.Context, sql string, args ...any) ([]Service, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, service)
	}
	return out, rows.Err()
}

func (p *PG) CreateUpdateRecord(ctx context.Context, serviceID int64, kind string) (UpdateRecord, error) {
	var record UpdateRecord
	err := p.pool.QueryRow(ctx, `
		INSERT INTO update_records (service_id, kind)
		VALUES ($1, $2)
		RETURNING id, service_id, kind, notified, created_at`,
		serviceID, kind).Scan(&record.ID, &record.ServiceID, &record.Kind,
		&record.Notified, &record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return UpdateRecord{}, ErrDuplicateUpdateRecord
		}
		return UpdateRecord{}, err
	}
	return record, nil
}

func (p *PG) ListPendingUpdateRecords(ctx context.Context, limit int32) ([]UpdateRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, service_id, kind, notified, created_at
		FROM update_records WHERE NOT notified ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UpdateRecord
	for rows.Next() {
		var record UpdateRecord
		if err := rows.Scan(&record.ID, &record.ServiceID, &record.Kind,
			&record.Notified, &record.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (p *PG) MarkUpdateRecordNotified(ctx context.Context, id int64) error {
	return p.execUser(ctx,
		`UPDATE update_records SET notified = true WHERE id = $1`, id)
}
