package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeReservationCreated  = "RESERVATION_CREATED"
	EventTypeReservationFinished = "RESERVATION_FINISHED"
	EventTypeItemRemoved         = "ITEM_REMOVED"
	EventTypeStockCommitted      = "STOCK_COMMITTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ReservationCreatedEvent published when a cart's reservation is opened
type ReservationCreatedEvent struct {
	BaseEvent
	ReservationID int64 `json:"reservation_id"`
	UserID        int64 `json:"user_id"`
}

// ReservationFinishedEvent published when the customer finishes the order.
// Items carry the quantities the stock worker has to deduct.
type ReservationFinishedEvent struct {
	BaseEvent
	ReservationID int64              `json:"reservation_id"`
	UserID        int64              `json:"user_id"`
	Total         decimal.Decimal    `json:"total"`
	Items         []ReservedItemData `json:"items"`
}

// ItemRemovedEvent published when a line-item is removed from the cart
type ItemRemovedEvent struct {
	BaseEvent
	ReservationID int64 `json:"reservation_id"`
	ItemID        int64 `json:"item_id"`
	ProductID     int64 `json:"product_id"`
	Quantity      int   `json:"quantity"`
}

// StockCommittedEvent published by the stock worker after deduction
type StockCommittedEvent struct {
	BaseEvent
	ReservationID int64 `json:"reservation_id"`
}

// ReservedItemData represents line-item data carried in events
type ReservedItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
