package store

import (
	"github.com/garrison-sh/garrison/pkg/types"
)

// Store defines the interface for subscription state storage
type Store interface {
	SaveSubscription(sub *types.Subscription) error
	GetSubscription(id string) (*types.Subscription, error)
	ListSubscriptions() ([]*types.Subscription, error)
	DeleteSubscription(id string) error

	Close() error
}
