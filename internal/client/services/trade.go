package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
)

// TradeService talks to the backend directly; trades are not cached.
type TradeService interface {
	// Propose offers one of the user's cars for requestedCarID and returns
	// the trade id.
	Propose(ctx context.Context, offeredCarID, requestedCarID, message string) (string, error)
	Respond(ctx context.Context, tradeID string, accept bool) error
	List(ctx context.Context) ([]models.Trade, error)
	// TradeableCars lists other users' cars that are open for trade.
	TradeableCars(ctx context.Context) ([]models.Car, error)
}

type tradeService struct {
	trades TradeRemote
	cars   CarRemote
}

func NewTradeService(trades TradeRemote, cars CarRemote) TradeService {
	return &tradeService{trades: trades, cars: cars}
}

const maxTradeMessage = 500

func (s *tradeService) Propose(ctx context.Context, offeredCarID, requestedCarID, message string) (string, error) {
	if offeredCarID == "" || requestedCarID == "" {
		return "", fmt.Errorf("%w: both cars are required", common.ErrInvalidEntity)
	}
	if offeredCarID == requestedCarID {
		return "", fmt.Errorf("%w: a car cannot be traded for itself", common.ErrInvalidEntity)
	}
	message = strings.TrimSpace(message)
	if len(message) > maxTradeMessage {
		return "", fmt.Errorf("%w: message longer than %d bytes", common.ErrInvalidEntity, maxTradeMessage)
	}
	return s.trades.Propose(ctx, offeredCarID, requestedCarID, message)
}

func (s *tradeService) Respond(ctx context.Context, tradeID string, accept bool) error {
	return s.trades.Respond(ctx, tradeID, accept)
}

func (s *tradeService) List(ctx context.Context) ([]models.Trade, error) {
	return s.trades.List(ctx)
}

func (s *tradeService) TradeableCars(ctx context.Context) ([]models.Car, error) {
	return s.cars.FetchTradeable(ctx)
}
