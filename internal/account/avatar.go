package account

import (
	"fmt"
	"strings"

	"github.com/louisbranch/cezi/internal/id"
	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
)

// MaxAvatarBytes caps uploaded avatar size.
const MaxAvatarBytes = 2 << 20

var (
	// ErrAvatarEmpty indicates an upload with no content.
	ErrAvatarEmpty = apperrors.New(apperrors.CodeProfileAvatarEmpty, "avatar content is required")
	// ErrAvatarTooLarge indicates an upload beyond MaxAvatarBytes.
	ErrAvatarTooLarge = apperrors.New(apperrors.CodeProfileAvatarTooLarge, "avatar content is too large")
	// ErrAvatarBadExtension indicates an unsupported avatar file type.
	ErrAvatarBadExtension = apperrors.New(apperrors.CodeProfileAvatarBadExtension, "avatar file type is not supported")
)

var avatarExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// AvatarKey derives a unique blob key for one avatar upload.
//
// The key embeds the owner id and a random token so successive uploads never
// collide; replaced avatars are not deleted (known gap, left to the blob
// store's retention).
func AvatarKey(ownerID, extension string, tokenGenerator func() (string, error)) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", ErrEmptyOwnerID
	}
	extension = strings.ToLower(strings.TrimSpace(extension))
	if _, ok := avatarExtensions[extension]; !ok {
		return "", ErrAvatarBadExtension
	}
	if tokenGenerator == nil {
		tokenGenerator = id.NewID
	}
	token, err := tokenGenerator()
	if err != nil {
		return "", fmt.Errorf("generate avatar token: %w", err)
	}
	return fmt.Sprintf("avatars/%s-%s%s", ownerID, token, extension), nil
}

// ValidateAvatarContent enforces upload size limits.
func ValidateAvatarContent(content []byte) error {
	if len(content) == 0 {
		return ErrAvatarEmpty
	}
	if len(content) > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	return nil
}
