package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/internal/domain/repository"
)

const userColumns = `id, name, provider, provider_id, date_of_birth, bio, links,
	contact_email, contact_facebook_url, phone_number, cv_file_url,
	portfolio_file_url, avatar_url, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ repository.UserRepository = (*UserRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.UserRecord, error) {
	var (
		u     entity.UserRecord
		links []byte
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Provider, &u.ProviderID, &u.DateOfBirth, &u.Bio, &links,
		&u.ContactEmail, &u.ContactFacebookURL, &u.PhoneNumber, &u.CVFileURL,
		&u.PortfolioFileURL, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &u.Links); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func (r *UserRepository) FindByIdentity(ctx context.Context, provider entity.Provider, providerID string) (*entity.UserRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, provider, providerID)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.UserRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindByName returns a record for public profile display. Names are not
// unique; when several users share one, the oldest account wins.
func (r *UserRepository) FindByName(ctx context.Context, name string) (*entity.UserRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE name = $1
		ORDER BY created_at
		LIMIT 1
	`, name)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Upsert checks the blacklist and writes the record in one transaction.
// ON CONFLICT on the natural key keeps the stored id and created_at; every
// other field is replaced with the incoming value, empty or not.
func (r *UserRepository) Upsert(ctx context.Context, rec *entity.UserRecord) (*entity.UserRecord, error) {
	links := rec.Links
	if links == nil {
		links = []entity.ProfileLink{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var blocked bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklist WHERE identifier = $1)`,
		rec.ProviderID,
	).Scan(&blocked); err != nil {
		return nil, err
	}
	if blocked {
		return nil, repository.ErrIdentityBlacklisted
	}

	now := time.Now().UTC()
	row := tx.QueryRow(ctx, `
		INSERT INTO users (
			id, name, provider, provider_id, date_of_birth, bio, links,
			contact_email, contact_facebook_url, phone_number, cv_file_url,
			portfolio_file_url, avatar_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			name                 = EXCLUDED.name,
			date_of_birth        = EXCLUDED.date_of_birth,
			bio                  = EXCLUDED.bio,
			links                = EXCLUDED.links,
			contact_email        = EXCLUDED.contact_email,
			contact_facebook_url = EXCLUDED.contact_facebook_url,
			phone_number         = EXCLUDED.phone_number,
			cv_file_url          = EXCLUDED.cv_file_url,
			portfolio_file_url   = EXCLUDED.portfolio_file_url,
			avatar_url           = EXCLUDED.avatar_url,
			updated_at           = EXCLUDED.updated_at
		RETURNING `+userColumns+`
	`,
		rec.ID, rec.Name, rec.Provider, rec.ProviderID, rec.DateOfBirth, rec.Bio,
		linksJSON, rec.ContactEmail, rec.ContactFacebookURL, rec.PhoneNumber,
		rec.CVFileURL, rec.PortfolioFileURL, rec.AvatarURL, now,
	)

	stored, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stored, nil
}

// Delete removes the record and blacklists its identifier atomically, so a
// crash between the two steps cannot leave the identifier re-registrable.
func (r *UserRepository) Delete(ctx context.Context, provider entity.Provider, providerID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`DELETE FROM users WHERE provider = $1 AND provider_id = $2`,
		provider, providerID,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO blacklist (identifier) VALUES ($1) ON CONFLICT (identifier) DO NOTHING`,
		providerID,
	); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (r *UserRepository) IsBlacklisted(ctx context.Context, identifier string) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklist WHERE identifier = $1)`,
		identifier,
	).Scan(&blocked)
	return blocked, err
}

func (r *UserRepository) AddToBlacklist(ctx context.Context, identifier string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO blacklist (identifier) VALUES ($1) ON CONFLICT (identifier) DO NOTHING`,
		identifier,
	)
	return err
}
