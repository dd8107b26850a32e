package gmail

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrUnauthorized indicates invalid or expired credentials
	ErrUnauthorized = errors.New("gmail: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions
	ErrForbidden = errors.New("gmail: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested message was not found
	ErrNotFound = errors.New("gmail: message not found")

	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("gmail: rate limit exceeded")
)

// IsRateLimited returns true if the error indicates rate limiting
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// IsRetryable reports whether a failed call is worth repeating
func IsRetryable(err error) bool {
	if IsRateLimited(err) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= http.StatusInternalServerError
	}
	return false
}

// WrapError converts a Google API error into one of the package sentinels, keeping the
// original error in the chain
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusUnauthorized:
		return errors.Join(ErrUnauthorized, err)
	case http.StatusForbidden:
		return errors.Join(ErrForbidden, err)
	case http.StatusNotFound:
		return errors.Join(ErrNotFound, err)
	case http.StatusTooManyRequests:
		return errors.Join(ErrRateLimited, err)
	default:
		return err
	}
}
