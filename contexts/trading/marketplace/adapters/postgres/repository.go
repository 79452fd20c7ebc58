package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	sourceService = "nft-marketplace"
)

// Repository implements the listing, proceeds, and outbox ports on Postgres.
// Write boundaries run in one DB transaction; settlement callbacks execute
// inside that transaction so a settlement failure rolls local state back.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetListing(ctx context.Context, key entities.ListingKey) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("asset_contract = ? AND asset_id = ?", key.AssetContract, key.AssetID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrNotListed
		}
		return entities.Listing{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListListings(ctx context.Context, filter ports.ListingListFilter) ([]entities.Listing, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&listingModel{})
	if contract := strings.TrimSpace(filter.AssetContract); contract != "" {
		tx = tx.Where("asset_contract = ?", contract)
	}
	if seller := strings.TrimSpace(filter.Seller); seller != "" {
		tx = tx.Where("seller = ?", seller)
	}
	tx = tx.Order("listed_at DESC, asset_contract ASC, asset_id ASC")

	offset := decodeCursor(filter.Cursor)
	if offset < 0 {
		offset = 0
	}

	var rows []listingModel
	if err := tx.Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}

	items := make([]entities.Listing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) CreateListingWithOutbox(ctx context.Context, listing entities.Listing, event ports.ItemListedEvent) error {
	message, err := buildListedMessage(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := listingModelFromEntity(listing)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyListed
			}
			return err
		}
		return createOutboxRow(tx, message)
	})
}

func (r *Repository) RepriceListingWithOutbox(ctx context.Context, listing entities.Listing, event ports.ItemListedEvent) error {
	message, err := buildListedMessage(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&listingModel{}).
			Where("asset_contract = ? AND asset_id = ?", listing.AssetContract, listing.AssetID).
			Updates(map[string]any{
				"price":      listing.Price,
				"updated_at": listing.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotListed
		}
		return createOutboxRow(tx, message)
	})
}

func (r *Repository) RemoveListingWithOutbox(ctx context.Context, key entities.ListingKey, seller string, event ports.ItemCanceledEvent) error {
	message, err := buildCanceledMessage(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("asset_contract = ? AND asset_id = ?", key.AssetContract, key.AssetID).
			Delete(&listingModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotListed
		}
		return createOutboxRow(tx, message)
	})
}

func (r *Repository) PurchaseListing(
	ctx context.Context,
	key entities.ListingKey,
	buyer string,
	event ports.ItemBoughtEvent,
	settle ports.SettleFunc,
) error {
	message, err := buildBoughtMessage(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row listingModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("asset_contract = ? AND asset_id = ?", key.AssetContract, key.AssetID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotListed
			}
			return err
		}
		listing := row.toEntity()

		if err := tx.Where("asset_contract = ? AND asset_id = ?", key.AssetContract, key.AssetID).
			Delete(&listingModel{}).Error; err != nil {
			return err
		}

		proceeds := proceedsModel{
			Account:   listing.Seller,
			Balance:   listing.Price,
			UpdatedAt: event.OccurredAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance":    gorm.Expr("seller_proceeds.balance + ?", listing.Price),
				"updated_at": event.OccurredAt.UTC(),
			}),
		}).Create(&proceeds).Error; err != nil {
			return err
		}

		if err := createOutboxRow(tx, message); err != nil {
			return err
		}

		// Settlement runs last, after all local effects are staged in the
		// transaction. A non-nil error aborts the whole purchase.
		return settle(ctx, listing)
	})
}

func (r *Repository) GetProceeds(ctx context.Context, account string) (uint64, error) {
	var row proceedsModel
	err := r.db.WithContext(ctx).
		Where("account = ?", account).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Balance, nil
}

// TotalProceeds sums all outstanding seller balances. Bootstrap uses it to
// reconcile the bank escrow with durable proceeds after a restart.
func (r *Repository) TotalProceeds(ctx context.Context) (uint64, error) {
	var total uint64
	err := r.db.WithContext(ctx).
		Model(&proceedsModel{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).
		Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repository) WithdrawProceeds(ctx context.Context, account string, payout ports.PayoutFunc) (uint64, error) {
	var amount uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row proceedsModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account = ?", account).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNoProceeds
			}
			return err
		}
		if row.Balance == 0 {
			return domainerrors.ErrNoProceeds
		}
		amount = row.Balance

		if err := tx.Model(&proceedsModel{}).
			Where("account = ?", account).
			Updates(map[string]any{
				"balance":    0,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}
		return payout(ctx, amount)
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func createOutboxRow(tx *gorm.DB, message ports.OutboxMessage) error {
	row := outboxModel{
		OutboxID:     message.OutboxID,
		EventType:    message.EventType,
		PartitionKey: message.PartitionKey,
		Payload:      message.Payload,
		Status:       outboxStatusPending,
		CreatedAt:    message.CreatedAt,
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
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

type listingModel struct {
	AssetContract string    `gorm:"column:asset_contract;primaryKey"`
	AssetID       uint64    `gorm:"column:asset_id;primaryKey"`
	Seller        string    `gorm:"column:seller"`
	Price         uint64    `gorm:"column:price"`
	ListedAt      time.Time `gorm:"column:listed_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (listingModel) TableName() string {
	return "market_listings"
}

func (m listingModel) toEntity() entities.Listing {
	return entities.Listing{
		AssetContract: m.AssetContract,
		AssetID:       m.AssetID,
		Seller:        m.Seller,
		Price:         m.Price,
		ListedAt:      m.ListedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func listingModelFromEntity(listing entities.Listing) listingModel {
	return listingModel{
		AssetContract: listing.AssetContract,
		AssetID:       listing.AssetID,
		Seller:        listing.Seller,
		Price:         listing.Price,
		ListedAt:      listing.ListedAt.UTC(),
		UpdatedAt:     listing.UpdatedAt.UTC(),
	}
}

type proceedsModel struct {
	Account   string    `gorm:"column:account;primaryKey"`
	Balance   uint64    `gorm:"column:balance"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (proceedsModel) TableName() string {
	return "seller_proceeds"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "market_outbox"
}
