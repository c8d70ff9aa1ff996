package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/observability"
)

const (
	eventsRedisTTL       = 30 * time.Minute
	eventsSendBufferSize = 32
)

// EventConnectionOptions wraps metadata extracted during the HTTP upgrade.
type EventConnectionOptions struct {
	CaseID        string
	CorrelationID string
	Context       context.Context
}

// CaseEventsService fans case lifecycle events out to WebSocket subscribers.
type CaseEventsService interface {
	ServeConnection(conn *websocket.Conn, opts EventConnectionOptions)
	Publish(ctx context.Context, event models.CaseEvent)
	Start(ctx context.Context)
}

type caseEventsService struct {
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	tracer      trace.Tracer
	hub         *eventHub
	nodeID      string
}

// eventHub keeps track of active websocket clients per case room.
type eventHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*eventClient]struct{}
	log   zerolog.Logger
}

type eventClient struct {
	conn    *websocket.Conn
	send    chan models.CaseEvent
	options EventConnectionOptions
	service *caseEventsService
	closed  chan struct{}
	once    sync.Once
}

type eventEnvelope struct {
	Source string           `json:"source"`
	Event  models.CaseEvent `json:"event"`
	SentAt time.Time        `json:"sent_at"`
}

// NewCaseEventsService creates a case events service instance. Redis and NATS
// are optional bridges for fanning events across instances.
func NewCaseEventsService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) CaseEventsService {
	hub := &eventHub{
		rooms: make(map[string]map[*eventClient]struct{}),
		log:   logger.With().Str("component", "event_hub").Logger(),
	}

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":events"
		cachePrefix = channelBase + ":events:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &caseEventsService{
		redis:       redisClient,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        natsConn,
		natsSubject: natsSubject,
		logger:      logger.With().Str("component", "case_events_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/aijudge-go-api/internal/service/events"),
		hub:         hub,
		nodeID:      uuid.NewString(),
	}
}

func (s *caseEventsService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *caseEventsService) ServeConnection(conn *websocket.Conn, opts EventConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &eventClient{
		conn:    conn,
		send:    make(chan models.CaseEvent, eventsSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
	}

	s.hub.register(client)
	s.logger.Debug().Str("case_id", opts.CaseID).Str("correlation_id", opts.CorrelationID).Msg("event subscriber joined")

	if last := s.fetchLastEvent(baseCtx, opts.CaseID); last != nil {
		select {
		case client.send <- *last:
		default:
			s.logger.Debug().Str("case_id", opts.CaseID).Msg("dropping replayed event due to slow consumer")
		}
	}

	go client.writer()
	client.reader()
}

// Publish delivers the event to local subscribers and, when bridges are
// configured, to every other instance listening on the shared channels.
func (s *caseEventsService) Publish(ctx context.Context, event models.CaseEvent) {
	if event.TS.IsZero() {
		event.TS = time.Now().UTC()
	}

	_, span := s.tracer.Start(ctx, "events.publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.String("case.id", event.CaseID),
	))
	defer span.End()

	s.cacheLastEvent(ctx, event)
	s.hub.broadcast(event.CaseID, event)
	observability.EventsBroadcast().WithLabelValues(event.Type).Inc()

	if err := s.publishRemote(ctx, event); err != nil {
		span.RecordError(err)
		s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish case event to bridges")
	}
}

func (s *caseEventsService) publishRemote(ctx context.Context, event models.CaseEvent) error {
	if (s.redis == nil || s.redisStream == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	envelope := eventEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *caseEventsService) cacheLastEvent(ctx context.Context, event models.CaseEvent) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal case event for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, event.CaseID)
	if err := s.redis.Set(ctx, key, payload, eventsRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache case event")
	}
}

func (s *caseEventsService) fetchLastEvent(ctx context.Context, caseID string) *models.CaseEvent {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, caseID)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var event models.CaseEvent
	if err := json.Unmarshal([]byte(result), &event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached case event")
		return nil
	}

	return &event
}

func (s *caseEventsService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("case events redis subscription closed")
			return
		}
		s.handleRemoteEvent([]byte(msg.Payload))
	}
}

func (s *caseEventsService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "aijudge-events", func(msg *nats.Msg) {
		s.handleRemoteEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain events nats subscription")
		}
	}()
}

func (s *caseEventsService) handleRemoteEvent(data []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid case event envelope")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	observability.EventsBroadcast().WithLabelValues(envelope.Event.Type).Inc()
	s.hub.broadcast(envelope.Event.CaseID, envelope.Event)
}

func (h *eventHub) register(client *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := client.options.CaseID
	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*eventClient]struct{})
	}
	h.rooms[room][client] = struct{}{}
	observability.EventClients().Inc()
	h.log.Debug().Str("case_id", room).Msg("event client connected")
}

func (h *eventHub) unregister(client *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := client.options.CaseID
	if clients, ok := h.rooms[room]; ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			observability.EventClients().Dec()
		}
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	h.log.Debug().Str("case_id", room).Msg("event client disconnected")
}

func (h *eventHub) broadcast(caseID string, event models.CaseEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.rooms[caseID]
	for client := range clients {
		select {
		case client.send <- event:
		default:
			h.log.Warn().Str("case_id", caseID).Msg("dropping case event for slow client")
		}
	}
}

// reader drains the socket until it closes. Subscribers are listeners; any
// payload they send is discarded.
func (c *eventClient) reader() {
	defer c.close()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.service.logger.Debug().Err(err).Msg("event read loop ended")
			return
		}
	}
}

func (c *eventClient) writer() {
	defer c.close()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.service.logger.Debug().Err(err).Msg("event write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("event ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *eventClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
