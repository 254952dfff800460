package queue

import "github.com/pkg/errors"

// ErrQueueUnavailable signals that the durable append failed and the job was
// never admitted.
var ErrQueueUnavailable = errors.New("transcode queue unavailable")

type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks err as terminal for the current job: the worker will not
// retry it. Used for validation failures the uploader has already been told
// about through the progress channel.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

func IsNonRetryable(err error) bool {
	var target *nonRetryableError
	return errors.As(err, &target)
}
