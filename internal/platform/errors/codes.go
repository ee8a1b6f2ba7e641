// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Auth errors
	CodeAuthInvalidCredentials  Code = "AUTH_INVALID_CREDENTIALS"
	CodeAuthAlreadyRegistered   Code = "AUTH_ALREADY_REGISTERED"
	CodeAuthEmailRequired       Code = "AUTH_EMAIL_REQUIRED"
	CodeAuthPasswordTooShort    Code = "AUTH_PASSWORD_TOO_SHORT"
	CodeAuthSessionInvalid      Code = "AUTH_SESSION_INVALID"
	CodeAuthSessionExpired      Code = "AUTH_SESSION_EXPIRED"
	CodeAuthNotSignedIn         Code = "AUTH_NOT_SIGNED_IN"
	CodeAuthProviderUnavailable Code = "AUTH_PROVIDER_UNAVAILABLE"

	// Reading errors
	CodeReadingEmptyOwnerID       Code = "READING_EMPTY_OWNER_ID"
	CodeReadingCharacterRequired  Code = "READING_CHARACTER_REQUIRED"
	CodeReadingCharacterTooLong   Code = "READING_CHARACTER_TOO_LONG"
	CodeReadingInvalidFilter      Code = "READING_INVALID_FILTER"
	CodeReadingInterpretationGone Code = "READING_INTERPRETATION_UNAVAILABLE"

	// Profile errors
	CodeProfileEmptyOwnerID       Code = "PROFILE_EMPTY_OWNER_ID"
	CodeProfileEmptyDisplayName   Code = "PROFILE_EMPTY_DISPLAY_NAME"
	CodeProfileAvatarEmpty        Code = "PROFILE_AVATAR_EMPTY"
	CodeProfileAvatarTooLarge     Code = "PROFILE_AVATAR_TOO_LARGE"
	CodeProfileAvatarBadExtension Code = "PROFILE_AVATAR_BAD_EXTENSION"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"

	// Transport errors
	CodeTransport Code = "TRANSPORT"
)

// HTTPStatus maps domain codes to HTTP status codes for the serving layer.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAuthEmailRequired,
		CodeAuthPasswordTooShort,
		CodeReadingEmptyOwnerID,
		CodeReadingCharacterRequired,
		CodeReadingCharacterTooLong,
		CodeReadingInvalidFilter,
		CodeProfileEmptyOwnerID,
		CodeProfileEmptyDisplayName,
		CodeProfileAvatarEmpty,
		CodeProfileAvatarBadExtension:
		return http.StatusBadRequest

	case CodeAuthInvalidCredentials,
		CodeAuthSessionInvalid,
		CodeAuthSessionExpired,
		CodeAuthNotSignedIn:
		return http.StatusUnauthorized

	case CodeAuthAlreadyRegistered:
		return http.StatusConflict

	case CodeNotFound:
		return http.StatusNotFound

	case CodeProfileAvatarTooLarge:
		return http.StatusRequestEntityTooLarge

	case CodeAuthProviderUnavailable,
		CodeReadingInterpretationGone,
		CodeStoreUnavailable,
		CodeTransport:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
