package commands

// Notification types relayed through the marketplace outbox.
const (
	ItemListedEventType   = "market.item_listed"
	ItemCanceledEventType = "market.item_canceled"
	ItemBoughtEventType   = "market.item_bought"
)
