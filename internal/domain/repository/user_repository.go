package repository

import (
	"context"

	"github.com/tryohq/tryo-api/internal/domain/entity"
)

// UserRepository is the persistence contract for user records and the
// revoked-identifier blacklist.
//
// Not-found is not an error: FindByIdentity and FindByName return (nil, nil)
// when no record matches. Upsert is atomic on the natural key
// (provider, provider_id) so concurrent writers cannot produce duplicate rows.
type UserRepository interface {
	FindByIdentity(ctx context.Context, provider entity.Provider, providerID string) (*entity.UserRecord, error)
	FindByID(ctx context.Context, id string) (*entity.UserRecord, error)
	FindByName(ctx context.Context, name string) (*entity.UserRecord, error)
	// Upsert inserts rec, or replaces every mutable field of the record that
	// shares its (provider, provider_id) pair. Empty incoming optional fields
	// clear the stored value. Returns the stored, post-merge record; when a
	// record already existed its original id wins over rec.ID.
	Upsert(ctx context.Context, rec *entity.UserRecord) (*entity.UserRecord, error)
	// Delete removes the matching record and blacklists the identifier in the
	// same transaction. Reports whether a record was removed.
	Delete(ctx context.Context, provider entity.Provider, providerID string) (bool, error)
	IsBlacklisted(ctx context.Context, identifier string) (bool, error)
	AddToBlacklist(ctx context.Context, identifier string) error
}
