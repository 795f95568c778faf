package bus

import (
	"fmt"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// New creates a new event bus based on configuration.
// "channel" is the single-node default; "nats" is for clusters.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
