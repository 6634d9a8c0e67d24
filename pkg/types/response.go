package types

// CodeOK marks a successful envelope. Failures carry a nonzero code
// (1 unless the caller picked something more specific); clients key off
// the 0/nonzero distinction, not the exact value.
const CodeOK = 0

// Envelope is the generic response body shared by every endpoint.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}
