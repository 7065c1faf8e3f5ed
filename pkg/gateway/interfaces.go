package gateway

import (
	"context"
)

// TokenResult is the outcome of a token fetch. An empty Token with a nil Err
// means the provider returned neither.
type TokenResult struct {
	Token string
	Err   error
}

// Gateway is the topic-management surface of a push-messaging provider.
type Gateway interface {
	// Subscribe registers the device for topic. The channel yields nil on
	// success. Subscribing twice to the same topic is not an error.
	Subscribe(ctx context.Context, topic string) <-chan error

	// Unsubscribe removes the device from topic.
	Unsubscribe(ctx context.Context, topic string) <-chan error

	// TokenAvailable reports whether a device registration token is present.
	TokenAvailable() bool

	// FetchToken asks the provider for the current registration token.
	FetchToken(ctx context.Context) <-chan TokenResult
}

// Registration is the outcome of the platform permission and registration
// flow.
type Registration struct {
	DeviceToken string
	Err         error
}

// Registrar requests notification permission and a device token.
type Registrar interface {
	Register(ctx context.Context) <-chan Registration
}

// TokenSink accepts a device token delivered by the registration flow.
// Gateways that need the platform token to talk to the provider implement it.
type TokenSink interface {
	SetDeviceToken(token string)
}
