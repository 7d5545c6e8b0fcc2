package verify

import "context"

// StatusOK is the provider status code meaning success; any other value
// is a provider-defined error code surfaced verbatim.
const StatusOK = "0"

// RequestResult is the provider response to a code dispatch.
type RequestResult struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	ErrorText string `json:"error_text,omitempty"`
}

// CheckResult is the provider response to a code check.
type CheckResult struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	ErrorText string `json:"error_text,omitempty"`
}

// Gateway is the port to the external SMS verification provider.
// Calls block on the network; callers impose their own deadline through ctx.
type Gateway interface {
	// RequestCode asks the provider to send a one-time code to number and
	// returns the provider's tracking id for the request.
	RequestCode(ctx context.Context, number string) (*RequestResult, error)
	// CheckCode asks the provider whether code matches the outstanding
	// request identified by requestID.
	CheckCode(ctx context.Context, requestID, code string) (*CheckResult, error)
}
