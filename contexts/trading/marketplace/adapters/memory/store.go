package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	application "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

const sourceService = "nft-marketplace"

// Store is an in-memory adapter implementing the marketplace ports for local
// runtime and tests. It is not intended as production persistence.
//
// A single mutex critical section approximates transactional semantics:
// listing mutation, proceeds accounting, and outbox append succeed or fail
// together. Local effects are committed before settlement callbacks run, so a
// reentrant operation triggered by settlement observes the already-updated
// state (listing gone, balance zeroed) instead of double-spending. The
// compensation after a failed settlement is best-effort: it debits at most the
// remaining balance, and reports ErrRepositoryInvariantBroke when the credited
// proceeds were already withdrawn mid-settlement.
type Store struct {
	mu          sync.RWMutex
	listings    map[entities.ListingKey]entities.Listing
	proceeds    map[string]uint64
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	sequence    uint64
	logger      *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		listings:    make(map[entities.ListingKey]entities.Listing),
		proceeds:    make(map[string]uint64),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) GetListing(_ context.Context, key entities.ListingKey) (entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[key]
	if !ok {
		return entities.Listing{}, domainerrors.ErrNotListed
	}
	return listing, nil
}

func (s *Store) ListListings(_ context.Context, filter ports.ListingListFilter) ([]entities.Listing, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contract := strings.TrimSpace(filter.AssetContract)
	seller := strings.TrimSpace(filter.Seller)

	var filtered []entities.Listing
	for _, listing := range s.listings {
		if contract != "" && listing.AssetContract != contract {
			continue
		}
		if seller != "" && listing.Seller != seller {
			continue
		}
		filtered = append(filtered, listing)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].ListedAt.Equal(filtered[j].ListedAt) {
			return filtered[i].Key().PartitionKey() < filtered[j].Key().PartitionKey()
		}
		return filtered[i].ListedAt.After(filtered[j].ListedAt)
	})

	start := decodeCursor(filter.Cursor)
	if start > len(filtered) {
		start = len(filtered)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := append([]entities.Listing(nil), filtered[start:end]...)
	nextCursor := ""
	if end < len(filtered) {
		nextCursor = encodeCursor(end)
	}
	return page, nextCursor, nil
}

func (s *Store) CreateListingWithOutbox(_ context.Context, listing entities.Listing, event ports.ItemListedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listing.Key()
	if _, ok := s.listings[key]; ok {
		return domainerrors.ErrAlreadyListed
	}

	message, err := buildListedMessage(event)
	if err != nil {
		return err
	}
	s.listings[key] = listing
	s.appendOutboxLocked(message)

	s.logger.Info("listing and outbox persisted in memory store",
		"event", "memory_create_listing_with_outbox",
		"module", "trading/marketplace",
		"layer", "adapter",
		"asset_contract", listing.AssetContract,
		"asset_id", listing.AssetID,
		"seller", listing.Seller,
		"outbox_event_id", event.EventID,
	)
	return nil
}

func (s *Store) RepriceListingWithOutbox(_ context.Context, listing entities.Listing, event ports.ItemListedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listing.Key()
	if _, ok := s.listings[key]; !ok {
		return domainerrors.ErrNotListed
	}

	message, err := buildListedMessage(event)
	if err != nil {
		return err
	}
	s.listings[key] = listing
	s.appendOutboxLocked(message)
	return nil
}

func (s *Store) RemoveListingWithOutbox(_ context.Context, key entities.ListingKey, seller string, event ports.ItemCanceledEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[key]; !ok {
		return domainerrors.ErrNotListed
	}

	message, err := buildCanceledMessage(event)
	if err != nil {
		return err
	}
	delete(s.listings, key)
	s.appendOutboxLocked(message)
	return nil
}

func (s *Store) PurchaseListing(
	ctx context.Context,
	key entities.ListingKey,
	buyer string,
	event ports.ItemBoughtEvent,
	settle ports.SettleFunc,
) error {
	s.mu.Lock()
	listing, ok := s.listings[key]
	if !ok {
		s.mu.Unlock()
		return domainerrors.ErrNotListed
	}
	message, err := buildBoughtMessage(event)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	delete(s.listings, key)
	s.proceeds[listing.Seller] += listing.Price
	s.appendOutboxLocked(message)
	s.mu.Unlock()

	// Effects are committed before the external settlement call. If settlement
	// reenters the store it finds the listing absent and the proceeds already
	// credited; only a settlement failure undoes the staged state.
	if err := settle(ctx, listing); err != nil {
		s.mu.Lock()
		s.listings[key] = listing
		// The credit may have been withdrawn while settlement was in flight,
		// so the compensation debits at most the remaining balance. A uint64
		// balance must never wrap.
		balance := s.proceeds[listing.Seller]
		debit := listing.Price
		if debit > balance {
			debit = balance
		}
		if balance-debit == 0 {
			delete(s.proceeds, listing.Seller)
		} else {
			s.proceeds[listing.Seller] = balance - debit
		}
		s.removeOutboxLocked(message.OutboxID)
		s.mu.Unlock()

		if debit < listing.Price {
			s.logger.Error("purchase rollback found proceeds already withdrawn",
				"event", "memory_purchase_rollback_drained",
				"module", "trading/marketplace",
				"layer", "adapter",
				"asset_contract", key.AssetContract,
				"asset_id", key.AssetID,
				"seller", listing.Seller,
				"missing", listing.Price-debit,
				"error", err.Error(),
			)
			return fmt.Errorf("%w: purchase rollback: credited proceeds already withdrawn: %v",
				domainerrors.ErrRepositoryInvariantBroke, err)
		}

		s.logger.Warn("purchase rolled back on settlement failure",
			"event", "memory_purchase_rolled_back",
			"module", "trading/marketplace",
			"layer", "adapter",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"buyer", buyer,
			"error", err.Error(),
		)
		return err
	}

	s.logger.Info("purchase persisted in memory store",
		"event", "memory_purchase_listing",
		"module", "trading/marketplace",
		"layer", "adapter",
		"asset_contract", key.AssetContract,
		"asset_id", key.AssetID,
		"buyer", buyer,
		"seller", listing.Seller,
		"price", listing.Price,
		"outbox_event_id", event.EventID,
	)
	return nil
}

func (s *Store) GetProceeds(_ context.Context, account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proceeds[account], nil
}

func (s *Store) WithdrawProceeds(ctx context.Context, account string, payout ports.PayoutFunc) (uint64, error) {
	s.mu.Lock()
	amount := s.proceeds[account]
	if amount == 0 {
		s.mu.Unlock()
		return 0, domainerrors.ErrNoProceeds
	}
	delete(s.proceeds, account)
	s.mu.Unlock()

	// Read-then-zero is one step relative to the payout call: a reentrant
	// withdrawal sees a zero balance and is rejected.
	if err := payout(ctx, amount); err != nil {
		s.mu.Lock()
		s.proceeds[account] += amount
		s.mu.Unlock()
		return 0, err
	}
	return amount, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mkt-%d", value), nil
}

// OutboxEvents exposes the append-only notification log for tests/inspection.
func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if evt, ok := s.outbox[id]; ok {
			events = append(events, evt)
		}
	}
	return events
}

func (s *Store) appendOutboxLocked(message ports.OutboxMessage) {
	s.outbox[message.OutboxID] = message
	s.outboxOrder = append(s.outboxOrder, message.OutboxID)
}

func (s *Store) removeOutboxLocked(outboxID string) {
	delete(s.outbox, outboxID)
	for i, id := range s.outboxOrder {
		if id == outboxID {
			s.outboxOrder = append(s.outboxOrder[:i], s.outboxOrder[i+1:]...)
			break
		}
	}
}

func buildListedMessage(event ports.ItemListedEvent) (ports.OutboxMessage, error) {
	data, err := json.Marshal(map[string]any{
		"asset_contract": event.AssetContract,
		"asset_id":       event.AssetID,
		"seller":         event.Seller,
		"price":          event.Price,
	})
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return buildMessage(event.EventID, event.EventType, event.PartitionKey, event.OccurredAt, data)
}

func buildCanceledMessage(event ports.ItemCanceledEvent) (ports.OutboxMessage, error) {
	data, err := json.Marshal(map[string]any{
		"asset_contract": event.AssetContract,
		"asset_id":       event.AssetID,
		"seller":         event.Seller,
	})
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return buildMessage(event.EventID, event.EventType, event.PartitionKey, event.OccurredAt, data)
}

func buildBoughtMessage(event ports.ItemBoughtEvent) (ports.OutboxMessage, error) {
	data, err := json.Marshal(map[string]any{
		"asset_contract": event.AssetContract,
		"asset_id":       event.AssetID,
		"buyer":          event.Buyer,
		"seller":         event.Seller,
		"price":          event.Price,
	})
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return buildMessage(event.EventID, event.EventType, event.PartitionKey, event.OccurredAt, data)
}

func buildMessage(eventID, eventType, partitionKey string, occurredAt time.Time, data json.RawMessage) (ports.OutboxMessage, error) {
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt,
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "asset",
		PartitionKey:     partitionKey,
		Data:             data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		CreatedAt:    occurredAt.UTC(),
	}, nil
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0
	}
	return index
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
