// Package cortexerr defines the error-kind taxonomy shared across the
// engine. Components return ordinary Go errors that wrap one
// of these sentinels via fmt.Errorf("%w", ...); the CLI layer uses Classify to
// classify any error into a diagnostic line and exit code without string
// matching.
package cortexerr

import "errors"

// Sentinel errors, one per error kind the engine distinguishes.
var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrDuplicateEdge           = errors.New("duplicate edge")
	ErrLockHeld                = errors.New("lock held")
	ErrStale                   = errors.New("stale")
	ErrStorageCorrupt          = errors.New("storage corrupt")
	ErrAuthFailed              = errors.New("auth failed")
	ErrRateLimited             = errors.New("rate limited")
	ErrTransport               = errors.New("transport error")
	ErrMalformedResponse       = errors.New("malformed response")
	ErrModelUnavailable        = errors.New("model unavailable")
	ErrVectorDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyVector             = errors.New("empty vector")
	ErrSafetyRollback          = errors.New("safety rollback")
	ErrInternal                = errors.New("internal error")
)

// Kind identifies which sentinel an error wraps.
type Kind string

const (
	KindInvalidInput            Kind = "InvalidInput"
	KindValidation              Kind = "ValidationError"
	KindNotFound                Kind = "NotFound"
	KindDuplicateEdge           Kind = "DuplicateEdge"
	KindLockHeld                Kind = "LockHeld"
	KindStale                   Kind = "Stale"
	KindStorageCorrupt          Kind = "StorageCorrupt"
	KindAuthFailed              Kind = "AuthFailed"
	KindRateLimited             Kind = "RateLimited"
	KindTransport               Kind = "TransportError"
	KindMalformedResponse       Kind = "MalformedResponse"
	KindModelUnavailable        Kind = "ModelUnavailable"
	KindVectorDimensionMismatch Kind = "VectorDimensionMismatch"
	KindEmptyVector             Kind = "EmptyVector"
	KindSafetyRollback          Kind = "SafetyRollback"
	KindInternal                Kind = "Internal"
	KindUnknown                 Kind = ""
)

var order = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
	{ErrDuplicateEdge, KindDuplicateEdge},
	{ErrLockHeld, KindLockHeld},
	{ErrStale, KindStale},
	{ErrStorageCorrupt, KindStorageCorrupt},
	{ErrAuthFailed, KindAuthFailed},
	{ErrRateLimited, KindRateLimited},
	{ErrTransport, KindTransport},
	{ErrMalformedResponse, KindMalformedResponse},
	{ErrModelUnavailable, KindModelUnavailable},
	{ErrVectorDimensionMismatch, KindVectorDimensionMismatch},
	{ErrEmptyVector, KindEmptyVector},
	{ErrSafetyRollback, KindSafetyRollback},
	{ErrInternal, KindInternal},
}

// Classify maps err to its Kind by walking its wrap chain against the
// sentinels above. Returns KindUnknown for an error that wraps none of
// them (the caller should treat that as Internal for exit-code purposes).
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, o := range order {
		if errors.Is(err, o.err) {
			return o.kind
		}
	}
	return KindUnknown
}
