package constants

import "errors"

// Configuration errors.
var (
	ErrBaseURLRequired   = errors.New("base URL is required")
	ErrInvalidBaseURL    = errors.New("invalid base URL")
	ErrNoCredentialValue = errors.New("credential provider returned an empty credential")
)

// Transport errors.
var (
	ErrForeignLinkHost  = errors.New("link points to a host other than the API base URL")
	ErrEmptyLink        = errors.New("link has no href")
	ErrTooManyRedirects = errors.New("too many redirects")
)
