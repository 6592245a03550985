package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tryohq/tryo-api/pkg/helpers"
)

// Upload kinds accepted by UploadProfileFile.
const (
	UploadKindCV        = "cv"
	UploadKindPortfolio = "portfolio"
	UploadKindAvatar    = "avatar"
)

var ErrInvalidUploadKind = errors.New("invalid upload kind")

// UploadProfileFile streams a file to the blob store and returns its public
// URL. ownerID may be a registration id for a record that is not persisted yet;
// the identity core stores whatever URL comes back, opaquely, with no
// reachability checks.
func (s *IdentityService) UploadProfileFile(ctx context.Context, ownerID, kind string, r io.Reader, filename, contentType string) (string, error) {
	switch kind {
	case UploadKindCV, UploadKindPortfolio, UploadKindAvatar:
	default:
		return "", ErrInvalidUploadKind
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("uploads", ownerID, kind, id+ext))
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}
