package types

// SuccessEnvelope wraps every successful API response body. Handlers never
// write bare payloads; the data key keeps clients decoding one shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error payload. Code is a stable machine
// readable string such as WINDOW_EXPIRED; Details carries field-level
// validation hints when the code permits them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
