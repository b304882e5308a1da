package consumer

// InvalidStateError - command on a closed consumer, nothing was sent
type InvalidStateError struct {
	Op string
}

func (e *InvalidStateError) Error() string {
	return "consumer: " + e.Op + ": closed"
}

// ParameterError - malformed command input, rejected before any request
type ParameterError struct {
	Op     string
	Reason string
}

func (e *ParameterError) Error() string {
	return "consumer: " + e.Op + ": " + e.Reason
}
