package models

import "time"

type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusAccepted  TradeStatus = "accepted"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// Trade is a proposal to swap two cars. Trades live on the server only.
type Trade struct {
	ID             string
	ProposerID     string
	ReceiverID     string
	OfferedCarID   string
	RequestedCarID string
	Message        string
	Status         TradeStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
