package repository

import "errors"

// ErrIdentityBlacklisted is returned by Upsert when the record's provider_id
// has been revoked. Permanent: the identifier can never register again.
var ErrIdentityBlacklisted = errors.New("identity blacklisted")
