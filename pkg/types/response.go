package types

// SuccessEnvelope wraps every 2xx JSON body. Handlers never write a bare
// payload, so clients can always unwrap "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public half of a failure. Code is one of the stable error
// codes, Message is safe to show to a dashboard user and Details carries
// field-level validation output when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx JSON body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
