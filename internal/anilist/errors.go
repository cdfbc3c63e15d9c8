package anilist

import (
	"errors"
	"fmt"
)

// ErrBadResponse reports a response from AniList that is missing expected
// data or cannot be decoded. It is a systemic failure.
var ErrBadResponse = errors.New("unexpected response from AniList")

// ErrRateLimited reports an HTTP 429 from the AniList API. It is a
// systemic failure.
var ErrRateLimited = errors.New("rate limited by the AniList API")

// NotFoundError reports that the requested username does not exist on
// AniList. It is an expected condition, not a systemic failure.
type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user name %s not found", e.Username)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
