package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

// ErrorKind enumerates the outcomes a flow or dispatch can fail with. The set is closed.
type ErrorKind int

const (
	// KindAuth: authorization or token exchange failed.
	KindAuth ErrorKind = iota + 1
	// KindCSRFInvalid: the callback state is missing or does not match the pending authorization.
	KindCSRFInvalid
	// KindReAuthNeeded: the API rejected the access token (401).
	KindReAuthNeeded
	// KindForbidden: the access token lacks the required scope (403).
	KindForbidden
	// KindRateLimited: the API is throttling the client (429).
	KindRateLimited
	// KindHTTP: any other non-2xx status, or a transport failure (status 0).
	KindHTTP
)

var kindNames = map[ErrorKind]string{
	KindAuth:         "AuthError",
	KindCSRFInvalid:  "CSRFInvalid",
	KindReAuthNeeded: "ReAuthNeeded",
	KindForbidden:    "Forbidden",
	KindRateLimited:  "RateLimited",
	KindHTTP:         "HTTPErr",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
}

// sentinel maps each kind onto the application-wide error it specializes.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuth:
		return shared.ErrAuthFailed
	case KindCSRFInvalid:
		return shared.ErrCSRFInvalid
	case KindReAuthNeeded:
		return shared.ErrTokenExpired
	case KindForbidden:
		return shared.ErrForbidden
	case KindRateLimited:
		return shared.ErrRateLimited
	case KindHTTP:
		return shared.ErrAPIRequest
	}
	return nil
}

const forbiddenDetail = "possibly missing the required client scope for this action"

// Error is returned by every grant flow and dispatch operation.
//
// errors.Is matches an *Error against the kind sentinels below (ErrAuth, ErrForbidden, ...)
// and against the corresponding [shared] sentinel.
type Error struct {
	Kind   ErrorKind
	Detail string
	// Status is the HTTP status that produced the error, 0 when none was received.
	Status int
	// RetryAfter is the server's Retry-After hint on RateLimited errors.
	RetryAfter time.Duration
	Err        error
}

// Kind sentinels for errors.Is.
var (
	ErrAuth         = &Error{Kind: KindAuth}
	ErrCSRFInvalid  = &Error{Kind: KindCSRFInvalid}
	ErrReAuthNeeded = &Error{Kind: KindReAuthNeeded}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrRateLimited  = &Error{Kind: KindRateLimited}
	ErrHTTP         = &Error{Kind: KindHTTP}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Kind == KindHTTP && e.Status != 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil && (e.Detail == "" || !strings.Contains(e.Detail, e.Err.Error())) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind. A target carrying a
// Status only matches errors with that status.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) && t != nil {
		return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
	}
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(kind ErrorKind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

// Classify maps a non-2xx HTTP status onto the taxonomy. It returns nil for 2xx.
func Classify(status int) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindReAuthNeeded, Status: status}
	case status == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: status, Detail: forbiddenDetail}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Status: status}
	default:
		return &Error{Kind: KindHTTP, Status: status}
	}
}

// classifyResponse applies [Classify] and attaches response details.
func classifyResponse(resp *http.Response) *Error {
	e := Classify(resp.StatusCode)
	if e == nil {
		return nil
	}
	if e.Kind == KindRateLimited {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return e
}

// parseRetryAfter reads the delta-seconds form of Retry-After; Spotify does not send HTTP dates.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// statusText returns the reason phrase of resp ("Internal Server Error"), falling back
// to the canonical text for its code.
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return code
}
