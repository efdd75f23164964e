package client

import "time"

// StatusCallback is notified about backend calls. The UI uses it to show
// which vendor is being waited on.
type StatusCallback interface {
	// OnRequest is called before a call is sent.
	OnRequest(backend Backend, model string)

	// OnResponse is called after a successful call.
	OnResponse(backend Backend, model string, elapsed time.Duration)

	// OnError is called when a call fails.
	// recoverable indicates whether the failure is worth retrying.
	OnError(err error, recoverable bool)
}

// DefaultStatusCallback is a no-op implementation of StatusCallback.
type DefaultStatusCallback struct{}

// OnRequest does nothing.
func (d *DefaultStatusCallback) OnRequest(backend Backend, model string) {}

// OnResponse does nothing.
func (d *DefaultStatusCallback) OnResponse(backend Backend, model string, elapsed time.Duration) {}

// OnError does nothing.
func (d *DefaultStatusCallback) OnError(err error, recoverable bool) {}
