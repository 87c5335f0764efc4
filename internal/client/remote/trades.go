package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

// TradeSource invokes the trade functions of the backend.
type TradeSource struct {
	db   dbx.DBTX
	auth *Auth
}

func NewTradeSource(db dbx.DBTX, auth *Auth) *TradeSource {
	return &TradeSource{db: db, auth: auth}
}

// Propose offers one of the user's cars for another user's tradeable car and
// returns the new trade id.
func (s *TradeSource) Propose(ctx context.Context, offeredCarID, requestedCarID, message string) (string, error) {
	uid, err := s.auth.UserID()
	if err != nil {
		return "", err
	}
	var id string
	err = s.db.QueryRowContext(ctx, `SELECT propose_trade($1, $2, $3, $4)`,
		uid, offeredCarID, requestedCarID, message).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (s *TradeSource) Respond(ctx context.Context, tradeID string, accept bool) error {
	uid, err := s.auth.UserID()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `SELECT respond_to_trade($1, $2, $3)`, tradeID, uid, accept)
	return mapError(err)
}

// List returns trades the user proposed or received, newest first.
func (s *TradeSource) List(ctx context.Context) ([]models.Trade, error) {
	uid, err := s.auth.UserID()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, proposer_id, receiver_id, offered_car_id, requested_car_id,
			message, status, created_at, updated_at
		FROM trades WHERE proposer_id = $1 OR receiver_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to select trades: %w", mapError(err))
	}
	defer rows.Close()

	var result []models.Trade
	for rows.Next() {
		var t models.Trade
		var status string
		if err := rows.Scan(&t.ID, &t.ProposerID, &t.ReceiverID, &t.OfferedCarID, &t.RequestedCarID,
			&t.Message, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		t.Status = models.TradeStatus(status)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}
