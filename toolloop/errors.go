package toolloop

// InvalidInputError reports a request rejected before any model call.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// EmptyOutputError reports a model turn that produced neither text nor tool
// calls, leaving the loop with nothing to return.
type EmptyOutputError struct {
	Message string
}

func (e *EmptyOutputError) Error() string {
	return e.Message
}
