// Package command invokes named methods on connected edge device modules and
// waits for their synchronous acknowledgement.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrDeviceUnreachable is returned when no device module is listening.
	ErrDeviceUnreachable = errors.New("device unreachable")

	// ErrTimeout is returned when the device does not respond within the timeout.
	ErrTimeout = errors.New("device response timeout")

	// ErrMalformedCommand is returned for invalid targets, methods or payloads.
	ErrMalformedCommand = errors.New("malformed command")
)

// Target addresses one module on one device.
type Target struct {
	DeviceID string
	ModuleID string
}

func (t Target) String() string {
	return t.DeviceID + "/" + t.ModuleID
}

// Response is the device's synchronous acknowledgement.
type Response struct {
	Status  int             `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Succeeded reports a 2xx status.
func (r *Response) Succeeded() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Transport delivers a method invocation and blocks for at most timeout.
type Transport interface {
	Invoke(ctx context.Context, target Target, method string, payload []byte, timeout time.Duration) (*Response, error)
}
