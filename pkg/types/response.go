package types

// SuccessEnvelope wraps every 2xx body; handlers never write bare payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details is only populated for codes
// whose metadata allows it, so validation feedback gets field detail while
// conflict and rate-limit responses stay opaque.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
