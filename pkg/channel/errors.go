package channel

// RequestError - the engine rejected or could not process a request
type RequestError struct {
	Method string
	Reason string
}

func (e *RequestError) Error() string {
	if e.Reason != "" {
		return "channel: " + e.Method + ": " + e.Reason
	}
	return "channel: " + e.Method + " failed"
}
