package htql

import "errors"

var (
	// ErrAuth is returned when the portal rejects the login credentials.
	ErrAuth = errors.New("htql: failed to login to your account")
	// ErrInvalidSession is returned when the portal redirects a request to its logout page.
	ErrInvalidSession = errors.New("htql: invalid session id")
	// ErrEmptyListing is returned when a group listing contains no timetable cells at all.
	// Expired sessions and mangled pages both end up here.
	ErrEmptyListing = errors.New("htql: group listing is empty")
	// ErrParse is returned when a page is missing the structure a scraper expects.
	ErrParse = errors.New("htql: unexpected page structure")
	// ErrUpstream wraps transport failures and unexpected status codes.
	ErrUpstream = errors.New("htql: upstream request failed")
)

// SessionRejected reports whether err means the session should be renewed
// before trying again.
func SessionRejected(err error) bool {
	return errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrEmptyListing)
}
