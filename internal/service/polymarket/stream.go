// Package polymarket streams live contract prices from the CLOB
// websocket market channel.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"Zephyr/internal/domain/models"
	drepo "Zephyr/internal/domain/repository"
	applogger "Zephyr/pkg/logger"

	"github.com/gorilla/websocket"
)

// DefaultWebsocketURL is the public CLOB market channel.
const DefaultWebsocketURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// Stream implements a QuoteStream backed by the Polymarket CLOB websocket.
type Stream struct {
	websocketURL   string
	assetIDs       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates a quote stream for the given asset ids (one per contract).
func New(websocketURL string, assetIDs []string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.QuoteStream {
	if websocketURL == "" {
		websocketURL = DefaultWebsocketURL
	}
	return &Stream{
		websocketURL:   websocketURL,
		assetIDs:       assetIDs,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

// Connect establishes the websocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket ws connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	if s.l != nil {
		s.l.Info("polymarket ws connected", applogger.String("url", s.websocketURL))
	}
	return nil
}

// Subscribe registers the configured asset ids on the market channel.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("polymarket ws not connected")
	}
	msg := map[string]interface{}{
		"type":       "market",
		"assets_ids": s.assetIDs,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("polymarket ws subscribe: %w", err)
	}
	if s.l != nil {
		s.l.Info("polymarket ws subscribed", applogger.Int("assets", len(s.assetIDs)))
	}
	return nil
}

type clobEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp"` // milliseconds
}

// Read streams QuoteTick events and errors. A read failure ends both
// channels; the caller decides whether to Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.QuoteTick, <-chan error) {
	ticks := make(chan *models.QuoteTick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("polymarket ws conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("polymarket ws read: %w", err)
					return
				}
				for _, tick := range decodeTicks(b) {
					select {
					case ticks <- tick:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

// decodeTicks extracts price updates from one frame. The channel sends
// both bare events and arrays of events; anything else is ignored.
func decodeTicks(b []byte) []*models.QuoteTick {
	var events []clobEvent
	if err := json.Unmarshal(b, &events); err != nil {
		var single clobEvent
		if err := json.Unmarshal(b, &single); err != nil {
			return nil
		}
		events = []clobEvent{single}
	}

	var out []*models.QuoteTick
	for _, ev := range events {
		if ev.EventType != "price_change" && ev.EventType != "last_trade_price" {
			continue
		}
		price, err := strconv.ParseFloat(ev.Price, 64)
		if err != nil || price <= 0.0 || price >= 1.0 {
			continue
		}
		size, _ := strconv.ParseFloat(ev.Size, 64)
		ms, err := strconv.ParseInt(ev.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, &models.QuoteTick{
			ContractTicker: ev.AssetID,
			Timestamp:      ms / 1000,
			YesPrice:       price,
			Size:           size,
		})
	}
	return out
}

// Reconnect closes and redials after the configured delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
