package orchestrator

import "github.com/agora-debate/agora/pkg/provider"

// errKind is the machine-readable taxonomy published on lifecycle.error,
// matching the external contract other API errors already use for
// provider/persistence/validation failures.
type errKind string

const (
	errKindProviderRateLimit     errKind = "provider_rate_limit"
	errKindProviderTransport     errKind = "provider_transport"
	errKindProviderContextLength errKind = "provider_context_length"
	errKindProviderAuth          errKind = "provider_auth"
	errKindProviderInvalid       errKind = "provider_invalid"
	errKindProviderTimeout       errKind = "provider_timeout"
	errKindPersistenceFatal      errKind = "persistence_fatal"
)

// classifyProviderErr maps a completion failure's ErrorClass onto the error
// taxonomy. Timeout surfaces as a distinct kind even though it is retried
// with the same policy as provider_transport, so a lifecycle.error caused by
// retry exhaustion after a deadline is distinguishable from a transport
// failure for observability.
func classifyProviderErr(err error) errKind {
	switch provider.ClassOf(err) {
	case provider.ErrorClassRateLimit:
		return errKindProviderRateLimit
	case provider.ErrorClassContextLength:
		return errKindProviderContextLength
	case provider.ErrorClassAuth:
		return errKindProviderAuth
	case provider.ErrorClassInvalid:
		return errKindProviderInvalid
	default:
		return errKindProviderTransport
	}
}
