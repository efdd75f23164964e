package app

import (
	"fmt"
	"time"

	"codearh/internal/client"
)

// appStatusCallback implements client.StatusCallback and publishes backend
// progress as EventBackend events.
type appStatusCallback struct {
	app *App
}

// OnRequest is called before a backend call is sent.
func (c *appStatusCallback) OnRequest(backend client.Backend, model string) {
	c.publish(fmt.Sprintf("Waiting for %s (%s)...", backend, model))
}

// OnResponse is called after a successful backend call.
func (c *appStatusCallback) OnResponse(backend client.Backend, model string, elapsed time.Duration) {
	c.publish(fmt.Sprintf("%s answered in %s", backend, elapsed.Round(100*time.Millisecond)))
}

// OnError is called when a backend call fails.
func (c *appStatusCallback) OnError(err error, recoverable bool) {
	msg := err.Error()
	if recoverable {
		msg = "Recoverable error: " + msg
	}
	c.publish(msg)
}

func (c *appStatusCallback) publish(text string) {
	if c.app == nil {
		return
	}
	c.app.events.Publish(Event{Type: EventBackend, Status: text, Time: c.app.now()})
}
