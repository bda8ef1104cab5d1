package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed for the join reply when ctx has no deadline.
	joinTimeout = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	DefaultHeartbeatInterval = 25 * time.Second
)

var ErrJoinRejected = errors.New("realtime join rejected")

// RealtimeSubscriber subscribes to row updates over the realtime websocket
// endpoint. Each subscription owns its own connection.
type RealtimeSubscriber struct {
	endpoint  string
	anonKey   string
	tokens    TokenSource
	heartbeat time.Duration
	dialer    *websocket.Dialer
	log       logging.Logger
}

// NewRealtimeSubscriber derives the websocket endpoint from the project URL.
// A zero heartbeat uses DefaultHeartbeatInterval.
func NewRealtimeSubscriber(projectURL, anonKey string, tokens TokenSource, heartbeat time.Duration, log logging.Logger) (*RealtimeSubscriber, error) {
	u, err := url.Parse(strings.TrimRight(projectURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse project url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path += "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", anonKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()

	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}

	return &RealtimeSubscriber{
		endpoint:  u.String(),
		anonKey:   anonKey,
		tokens:    tokens,
		heartbeat: heartbeat,
		dialer:    websocket.DefaultDialer,
		log:       log.With("module", "feed"),
	}, nil
}

// Subscribe dials, joins the profile table channel filtered to id and waits
// for the join reply before returning.
func (r *RealtimeSubscriber) Subscribe(ctx context.Context, id string, onRowUpdated func(models.Profile)) (Subscription, error) {
	token := r.anonKey
	if r.tokens != nil {
		t, err := r.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("subscribe: %w", err)
		}
		token = t
	}

	conn, _, err := r.dialer.DialContext(ctx, r.endpoint, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	s := &realtimeSubscription{
		id:       id,
		topic:    "realtime:" + changeSchema + ":" + common.ProfileTable,
		conn:     conn,
		onUpdate: onRowUpdated,
		done:     make(chan struct{}),
		log:      r.log.With("user_id", id),
	}

	if err := s.join(ctx, token); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go s.readLoop()
	go s.heartbeatLoop(r.heartbeat)

	s.log.Debug(ctx, "change feed subscribed", "topic", s.topic)
	return s, nil
}

type realtimeSubscription struct {
	id       string
	topic    string
	joinRef  string
	conn     *websocket.Conn
	onUpdate func(models.Profile)
	log      logging.Logger

	wmu  sync.Mutex
	ref  atomic.Uint64
	once sync.Once
	done chan struct{}
}

func (s *realtimeSubscription) ID() string {
	return s.id
}

// Unsubscribe leaves the channel and closes the connection. Updates read
// after it returns are dropped.
func (s *realtimeSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		if err := s.send(s.topic, eventLeave, struct{}{}); err != nil {
			s.log.Debug(context.Background(), "phx_leave failed", "error", err)
		}
		s.wmu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		s.wmu.Unlock()
		_ = s.conn.Close()
	})
}

func (s *realtimeSubscription) nextRef() string {
	return strconv.FormatUint(s.ref.Add(1), 10)
}

func (s *realtimeSubscription) send(topic, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ref := s.nextRef()
	m := message{Topic: topic, Event: event, Payload: raw, Ref: &ref}
	if topic == s.topic && s.joinRef != "" {
		m.JoinRef = &s.joinRef
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(m)
}

func (s *realtimeSubscription) join(ctx context.Context, token string) error {
	payload := joinPayload{
		Config: joinConfig{PostgresChanges: []changeFilter{{
			Event:  changeUpdate,
			Schema: changeSchema,
			Table:  common.ProfileTable,
			Filter: "id=eq." + s.id,
		}}},
		AccessToken: token,
	}

	s.joinRef = strconv.FormatUint(s.ref.Load()+1, 10)
	if err := s.send(s.topic, eventJoin, payload); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(joinTimeout)
	}
	_ = s.conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = s.conn.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		var m message
		if err := s.conn.ReadJSON(&m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("await join reply: %w", err)
		}
		if m.Event != eventReply || m.Topic != s.topic || m.Ref == nil || *m.Ref != s.joinRef {
			continue
		}

		var reply replyPayload
		if err := json.Unmarshal(m.Payload, &reply); err != nil {
			return fmt.Errorf("decode join reply: %w", err)
		}
		if reply.Status != replyOK {
			return fmt.Errorf("%w: %s %s", ErrJoinRejected, reply.Status, string(reply.Response))
		}
		break
	}

	if !stop() {
		// ctx ended right after the reply arrived
		return ctx.Err()
	}
	return s.conn.SetReadDeadline(time.Time{})
}

func (s *realtimeSubscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *realtimeSubscription) readLoop() {
	ctx := context.Background()
	for {
		var m message
		if err := s.conn.ReadJSON(&m); err != nil {
			if !s.closed() {
				s.log.Warn(ctx, "change feed connection lost", "error", err)
			}
			return
		}

		switch m.Event {
		case eventChanges:
			s.deliver(ctx, m)
		case eventError, eventClose:
			if m.Topic == s.topic && !s.closed() {
				s.log.Warn(ctx, "change feed channel closed by server", "event", m.Event)
			}
		}
	}
}

func (s *realtimeSubscription) deliver(ctx context.Context, m message) {
	if m.Topic != s.topic {
		return
	}

	var change changePayload
	if err := json.Unmarshal(m.Payload, &change); err != nil {
		s.log.Warn(ctx, "malformed change payload", "error", err)
		return
	}
	if change.Data.Type != changeUpdate || change.Data.Table != common.ProfileTable {
		return
	}

	var p models.Profile
	if err := json.Unmarshal(change.Data.Record, &p); err != nil {
		s.log.Warn(ctx, "malformed change record", "error", err)
		return
	}
	if p.ID != s.id {
		return
	}

	if s.closed() {
		return
	}
	s.onUpdate(p)
}

func (s *realtimeSubscription) heartbeatLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.send(heartbeatTopic, eventHeartbeat, struct{}{}); err != nil {
				if !s.closed() {
					s.log.Warn(context.Background(), "heartbeat failed", "error", err)
				}
				return
			}
		}
	}
}
