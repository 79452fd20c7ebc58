package ports

import (
	"context"
	"time"

	contractsv1 "github.com/easonnong/nft-marketplace/contracts/gen/events/v1"

	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
)

// ListingListFilter selects a catalog page for indexer/UI consumers.
type ListingListFilter struct {
	AssetContract string
	Seller        string
	Cursor        string
	Limit         int
}

// ItemListedEvent is emitted when a listing is created or repriced.
// Updates re-emit this event rather than a distinct type.
type ItemListedEvent struct {
	EventID       string
	EventType     string
	AssetContract string
	AssetID       uint64
	Seller        string
	Price         uint64
	PartitionKey  string
	OccurredAt    time.Time
}

type ItemCanceledEvent struct {
	EventID       string
	EventType     string
	AssetContract string
	AssetID       uint64
	Seller        string
	PartitionKey  string
	OccurredAt    time.Time
}

type ItemBoughtEvent struct {
	EventID       string
	EventType     string
	AssetContract string
	AssetID       uint64
	Buyer         string
	Seller        string
	Price         uint64
	PartitionKey  string
	OccurredAt    time.Time
}

// SettleFunc performs the externally-controlled half of a purchase or
// withdrawal (value movement, asset transfer). Repositories invoke it only
// after local effects are staged so a failure aborts the whole write boundary.
type SettleFunc func(ctx context.Context, listing entities.Listing) error

// PayoutFunc moves withdrawn proceeds to the seller. A non-nil error rolls the
// balance zeroing back.
type PayoutFunc func(ctx context.Context, amount uint64) error

// ListingRepository owns the listing lifecycle. Every mutating call commits the
// listing change together with its outbox notification in one write boundary.
type ListingRepository interface {
	GetListing(ctx context.Context, key entities.ListingKey) (entities.Listing, error)
	ListListings(ctx context.Context, filter ListingListFilter) ([]entities.Listing, string, error)
	CreateListingWithOutbox(ctx context.Context, listing entities.Listing, event ItemListedEvent) error
	RepriceListingWithOutbox(ctx context.Context, listing entities.Listing, event ItemListedEvent) error
	RemoveListingWithOutbox(ctx context.Context, key entities.ListingKey, seller string, event ItemCanceledEvent) error

	// PurchaseListing atomically removes the listing, credits the seller's
	// proceeds with the listing price, appends the bought notification, and
	// runs settle. Settle failure rolls all of it back and the listing stays
	// active.
	PurchaseListing(ctx context.Context, key entities.ListingKey, buyer string, event ItemBoughtEvent, settle SettleFunc) error
}

// ProceedsLedger accounts funds owed to sellers until explicitly withdrawn.
type ProceedsLedger interface {
	GetProceeds(ctx context.Context, account string) (uint64, error)

	// WithdrawProceeds atomically reads the balance, zeroes it, and runs payout
	// with the prior value. The read-then-zero is observed as a single step;
	// payout failure restores the balance.
	WithdrawProceeds(ctx context.Context, account string, payout PayoutFunc) (uint64, error)
}

// AssetRegistry is the external asset ownership interface the marketplace
// consumes. Any concrete registry implementing these three calls substitutes.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, assetContract string, assetID uint64) (string, error)
	ApprovedOperator(ctx context.Context, assetContract string, assetID uint64) (string, error)
	Transfer(ctx context.Context, assetContract string, assetID uint64, from string, to string) error
}

// Bank moves native value between accounts and the marketplace escrow.
type Bank interface {
	// Collect debits the payer into marketplace escrow.
	Collect(ctx context.Context, from string, amount uint64) error
	// Payout releases escrowed value to the recipient.
	Payout(ctx context.Context, to string, amount uint64) error
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
