package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer. Provider adapters map vendor
// signals (HTTP status, SDK error codes) onto these so the engine never
// inspects transport shapes.
var (
	// ErrProviderUnavailable: no provider registered for a vendor prefix.
	// Fatal — surfaced immediately, never retried.
	ErrProviderUnavailable = fmt.Errorf("no provider registered for vendor")
	// ErrModelNotFound: the vendor does not know the requested model.
	// Triggers one fallback attempt when a fallback is configured.
	ErrModelNotFound = fmt.Errorf("model not found")
	// ErrRateLimited: vendor backpressure. Never retried.
	ErrRateLimited = fmt.Errorf("rate limit exceeded")
	// ErrProviderTransient: retryable provider failure (5xx, network).
	// Gets one fallback attempt, same as ErrModelNotFound.
	ErrProviderTransient = fmt.Errorf("transient provider error")
	// ErrUnknownStrategy: the request named a strategy the engine does not
	// implement. Fails fast before any model call.
	ErrUnknownStrategy = fmt.Errorf("unknown orchestration strategy")
	// ErrInvalidRequest: malformed orchestration input (empty prompt,
	// unparseable model identifier, no models available).
	ErrInvalidRequest = fmt.Errorf("invalid orchestration request")
	// ErrAuthInvalid: credentials rejected by the vendor.
	ErrAuthInvalid = fmt.Errorf("authentication failed")
	// ErrContextOverflow: request exceeded the model's context window.
	ErrContextOverflow = fmt.Errorf("context window exceeded")
	// ErrEmptyCompletion: the provider returned no usable text.
	ErrEmptyCompletion = fmt.Errorf("provider returned empty completion")
	// ErrDuplicateVendor: a vendor was registered twice at startup.
	ErrDuplicateVendor = fmt.Errorf("vendor already registered")
)

// ErrorKind classifies a model-call failure for the routing policy. Retry
// behavior is a pure function of the kind: NotFound and Transient get one
// fallback attempt, RateLimited and Fatal propagate immediately.
type ErrorKind int

const (
	KindFatal ErrorKind = iota
	KindNotFound
	KindRateLimited
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// KindOf classifies an error by walking its chain. Errors with no
// recognizable sentinel are treated as transient: an unknown provider
// failure still gets its one fallback attempt.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindFatal
	case errors.Is(err, ErrModelNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrAuthInvalid),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnknownStrategy),
		errors.Is(err, ErrContextOverflow):
		return KindFatal
	default:
		return KindTransient
	}
}

// OrchestrationError wraps a sentinel error with call context.
type OrchestrationError struct {
	Op     string // operation name (e.g. "router.call", "debate.round")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *OrchestrationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// NewOrchestrationError creates a new OrchestrationError.
func NewOrchestrationError(op string, err error, detail string) *OrchestrationError {
	return &OrchestrationError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for monitoring.
type ErrorCode string

const (
	CodeUnknown             ErrorCode = "UNKNOWN"
	CodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	CodeModelNotFound       ErrorCode = "MODEL_NOT_FOUND"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeProviderTransient   ErrorCode = "PROVIDER_TRANSIENT"
	CodeUnknownStrategy     ErrorCode = "UNKNOWN_STRATEGY"
	CodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	CodeAuthInvalid         ErrorCode = "AUTH_INVALID"
	CodeContextOverflow     ErrorCode = "CONTEXT_OVERFLOW"
	CodeEmptyCompletion     ErrorCode = "EMPTY_COMPLETION"
	CodeDuplicateVendor     ErrorCode = "DUPLICATE_VENDOR"
)

var errorCodeMap = map[error]ErrorCode{
	ErrProviderUnavailable: CodeProviderUnavailable,
	ErrModelNotFound:       CodeModelNotFound,
	ErrRateLimited:         CodeRateLimited,
	ErrProviderTransient:   CodeProviderTransient,
	ErrUnknownStrategy:     CodeUnknownStrategy,
	ErrInvalidRequest:      CodeInvalidRequest,
	ErrAuthInvalid:         CodeAuthInvalid,
	ErrContextOverflow:     CodeContextOverflow,
	ErrEmptyCompletion:     CodeEmptyCompletion,
	ErrDuplicateVendor:     CodeDuplicateVendor,
}

// ErrorCodeOf returns the machine-parseable error code for the given error,
// walking the chain with errors.Is. Returns CodeUnknown when no sentinel
// matches.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	if code, ok := errorCodeMap[err]; ok {
		return code
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeUnknown
}
