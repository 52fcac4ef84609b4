package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamConfig holds websocket stream configuration.
type StreamConfig struct {
	URL               string
	FeedIDs           []string
	DialTimeout       time.Duration
	PingInterval      time.Duration
	ReconnectInitial  time.Duration
	ReconnectMax      time.Duration
	ReconnectMultiply float64
	BufferSize        int
	Logger            *zap.Logger
}

func (c *StreamConfig) withDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.ReconnectInitial == 0 {
		c.ReconnectInitial = time.Second
	}
	if c.ReconnectMax == 0 {
		c.ReconnectMax = time.Minute
	}
	if c.ReconnectMultiply == 0 {
		c.ReconnectMultiply = 2.0
	}
	if c.BufferSize == 0 {
		c.BufferSize = 256
	}
}

// Stream maintains a websocket subscription to oracle feed updates,
// reconnecting with jittered exponential backoff when the connection
// drops.
type Stream struct {
	config  StreamConfig
	logger  *zap.Logger
	updates chan *Feed

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected atomic.Bool
	backoff   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type subscribeMessage struct {
	Type    string   `json:"type"`
	FeedIDs []string `json:"feed_ids"`
}

// NewStream creates a feed stream. Call Start to connect.
func NewStream(cfg StreamConfig) (*Stream, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("stream URL cannot be empty")
	}
	if len(cfg.FeedIDs) == 0 {
		return nil, fmt.Errorf("at least one feed ID is required")
	}
	cfg.withDefaults()
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Stream{
		config:  cfg,
		logger:  cfg.Logger,
		updates: make(chan *Feed, cfg.BufferSize),
		backoff: cfg.ReconnectInitial,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Updates delivers decoded feed readings. The channel closes when the
// stream stops.
func (s *Stream) Updates() <-chan *Feed {
	return s.updates
}

// Connected reports whether the websocket is currently up.
func (s *Stream) Connected() bool {
	return s.connected.Load()
}

// Start connects and begins delivering updates.
func (s *Stream) Start() error {
	s.logger.Info("feed-stream-starting",
		zap.String("url", s.config.URL),
		zap.Int("feed-count", len(s.config.FeedIDs)))

	if err := s.connect(s.ctx); err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()
	return nil
}

// Stop tears down the connection and closes the updates channel.
func (s *Stream) Stop() {
	s.logger.Info("feed-stream-stopping")
	s.cancel()

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.updates)
}

func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.DialTimeout}

	conn, _, err := dialer.DialContext(ctx, s.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	sub := subscribeMessage{Type: "subscribe", FeedIDs: s.config.FeedIDs}
	payload, err := json.Marshal(sub)
	if err != nil {
		conn.Close()
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)
	StreamConnected.Set(1)

	s.logger.Info("feed-stream-connected")
	return nil
}

func (s *Stream) readLoop() {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()

		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.connected.Store(false)
			StreamConnected.Set(0)

			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("feed-stream-read-failed", zap.Error(err))
			if err := s.reconnect(); err != nil {
				return
			}
			continue
		}

		var feed Feed
		if err := json.Unmarshal(payload, &feed); err != nil {
			s.logger.Warn("feed-update-decode-failed", zap.Error(err))
			continue
		}
		if feed.FeedID == "" {
			continue
		}

		UpdatesReceivedTotal.Inc()
		select {
		case s.updates <- &feed:
		default:
			// A slow consumer drops the oldest reading, never blocks
			// the read loop.
			select {
			case <-s.updates:
			default:
			}
			s.updates <- &feed
			UpdatesDroppedTotal.Inc()
		}
	}
}

func (s *Stream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil || !s.connected.Load() {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				s.logger.Warn("feed-stream-ping-failed", zap.Error(err))
			}
		}
	}
}

// reconnect retries with jittered exponential backoff until the
// connection is restored or the stream is stopped.
func (s *Stream) reconnect() error {
	for {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}

		delay := s.nextBackoff()
		s.logger.Info("feed-stream-reconnecting", zap.Duration("backoff", delay))
		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return s.ctx.Err()
		}

		if err := s.connect(s.ctx); err != nil {
			s.logger.Warn("feed-stream-reconnect-failed", zap.Error(err))
			continue
		}

		s.mu.Lock()
		s.backoff = s.config.ReconnectInitial
		s.mu.Unlock()
		return nil
	}
}

func (s *Stream) nextBackoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	jitter := 1.0 + rand.Float64()*0.2
	delay := time.Duration(float64(s.backoff) * jitter)

	next := time.Duration(float64(s.backoff) * s.config.ReconnectMultiply)
	if next > s.config.ReconnectMax {
		next = s.config.ReconnectMax
	}
	s.backoff = next

	return delay
}
