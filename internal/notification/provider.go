package notification

import "context"

// Provider delivers a rendered message over some external channel.
type Provider interface {
	// Name returns the provider identifier, e.g. "smtp".
	Name() string
	// Send delivers msg. Implementations must respect ctx cancellation.
	Send(ctx context.Context, msg Message) error
}
