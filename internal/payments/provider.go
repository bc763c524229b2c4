package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tickethub/config"
)

// EventKind is the asynchronous outcome a provider reports for an intent.
type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventRefunded  EventKind = "refunded"
)

// Event is a provider-side payment outcome keyed by the intent id.
type Event struct {
	PaymentRef string    `json:"payment_ref"`
	Kind       EventKind `json:"kind"`
	At         time.Time `json:"at"`
}

// Intent is a request for payment. The client secret goes to the buyer's
// browser; the server keeps only a hash of it.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
}

// Provider is the payment collaborator contract. Implementations emit
// success/failure/refund events on the channel set via SetEventChannel.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// CreateIntent registers a payment request for the given amount in
	// currency minor units.
	CreateIntent(ctx context.Context, amountMinor int64) (*Intent, error)

	// SetEventChannel sets the channel for receiving payment outcome events.
	SetEventChannel(ch chan *Event)

	// Close gracefully closes any connections.
	Close(ctx context.Context) error
}

// NewProvider creates a provider by name.
func NewProvider(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (Provider, error) {
	switch cfg.PaymentProvider {
	case "devpay":
		return NewDevPay(ctx, cfg, redisClient)
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.PaymentProvider)
	}
}
