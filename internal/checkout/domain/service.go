package domain

import "context"

type Service interface {
	// CreateSession opens a hosted checkout session for the chosen tier
	// with the buyer info flattened into session metadata.
	CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error)

	// HandleWebhook verifies the signature, dedupes the event, and
	// dispatches it. Unrecognized event types are acknowledged without
	// side effects.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}
