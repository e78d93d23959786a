package provider

import "fmt"

// Layer identifies which response layer rejected a call. Retry policy hangs
// off the layer: transport failures may be retried by the caller, everything
// deeper must not be, since codes like fraud-block are final determinations
// and retries burn unique request ids or trip provider-side lockout.
type Layer string

const (
	LayerTransport Layer = "transport"
	LayerGateway   Layer = "gateway"
	LayerBusiness  Layer = "business"
	LayerDomain    Layer = "domain"
)

// GatewayError is the typed failure for any trust-provider call. Code and
// Message carry the provider's own diagnostics and stay out of user-visible
// responses.
type GatewayError struct {
	Layer   Layer
	Code    string
	Message string
	cause   error
}

func (e *GatewayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("trust provider %s failure (code %q): %s: %v", e.Layer, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("trust provider %s failure (code %q): %s", e.Layer, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.cause }

// Retryable reports whether the caller may retry the call. Only transport
// failures qualify.
func (e *GatewayError) Retryable() bool { return e.Layer == LayerTransport }

func transportError(message string, cause error) *GatewayError {
	return &GatewayError{Layer: LayerTransport, Message: message, cause: cause}
}

func gatewayError(code, message string) *GatewayError {
	return &GatewayError{Layer: LayerGateway, Code: code, Message: message}
}

func businessError(code, message string) *GatewayError {
	return &GatewayError{Layer: LayerBusiness, Code: code, Message: message}
}

// DomainError builds a GatewayError for an unrecognized domain result code.
func DomainError(code, message string) *GatewayError {
	return &GatewayError{Layer: LayerDomain, Code: code, Message: message}
}
