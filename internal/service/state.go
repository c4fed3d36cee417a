package service

// State is a step of the denoise pipeline. A request moves strictly forward through
// Received, Decoded, Shaped, Inferred, Encoded and Done, or stops in Failed.
type State string

const (
	StateReceived State = "received"
	StateDecoded  State = "decoded"
	StateShaped   State = "shaped"
	StateInferred State = "inferred"
	StateEncoded  State = "encoded"
	StateDone     State = "done"
	StateFailed   State = "failed"
)
