package ports

import "context"

// GeolocationResolver turns an IP address into a coarse location label. It is
// best-effort: implementations degrade to sentinel values ("Unknown",
// "Local Network") instead of failing.
type GeolocationResolver interface {
	Resolve(ctx context.Context, ipAddress string) string
}

// AlertPublisher delivers alert and notification events to the external
// alerting collaborator. The outbox worker is the only caller.
type AlertPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}
