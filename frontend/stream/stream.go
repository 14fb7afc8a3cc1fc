// Package stream pushes appended journal entries to websocket
// subscribers. Clients subscribe with glob patterns matched against
// entry paths.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/eapache/channels"
	"github.com/gobwas/glob"
	"github.com/gorilla/websocket"
	msgpack "github.com/vmihailenco/msgpack"

	"github.com/shvtools/shvjournal/utils/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EntryMessage is the wire form of one pushed journal entry.
type EntryMessage struct {
	Timestamp  int64       `msgpack:"timestamp"`
	Path       string      `msgpack:"path"`
	Value      interface{} `msgpack:"value"`
	ShortTime  *int        `msgpack:"shortTime"`
	Domain     string      `msgpack:"domain,omitempty"`
	SampleType string      `msgpack:"sampleType,omitempty"`
}

// SubscribeMessage is the inbound message selecting streams.
type SubscribeMessage struct {
	Streams []string `msgpack:"streams"`
}

// ErrorMessage reports an invalid subscription back to the client.
type ErrorMessage struct {
	Error string `msgpack:"error"`
}

// Hub maintains the set of active subscribers and fans appended entries
// out to them.
type Hub struct {
	sync.RWMutex
	subs map[*Subscriber]struct{}
	send *channels.InfiniteChannel
}

// NewHub makes a hub; Run must be started for pushes to be delivered.
func NewHub() *Hub {
	return &Hub{
		subs: map[*Subscriber]struct{}{},
		send: channels.NewInfiniteChannel(),
	}
}

// Push queues one entry for delivery to matching subscribers.
func (h *Hub) Push(msg EntryMessage) {
	h.send.In() <- msg
}

// Run delivers pushed entries until Close is called.
func (h *Hub) Run() {
	for m := range h.send.Out() {
		msg, ok := m.(EntryMessage)
		if !ok {
			continue
		}
		buf, err := msgpack.Marshal(msg)
		if err != nil {
			log.Error("stream: failed to marshal entry: %v", err)
			continue
		}
		h.RLock()
		for sub := range h.subs {
			if sub.Subscribed(msg.Path) {
				if err := sub.handleOutbound(buf); err != nil {
					log.Warn("stream: failed to write to subscriber: %v", err)
				}
			}
		}
		h.RUnlock()
	}
}

// Close stops delivery.
func (h *Hub) Close() {
	h.send.Close()
}

func (h *Hub) add(sub *Subscriber) {
	h.Lock()
	defer h.Unlock()
	h.subs[sub] = struct{}{}
}

func (h *Hub) remove(sub *Subscriber) {
	h.Lock()
	defer h.Unlock()
	delete(h.subs, sub)
}

// Subscriber is one websocket client and its subscribed streams.
type Subscriber struct {
	sync.RWMutex
	c       *websocket.Conn
	done    chan struct{}
	streams map[string]struct{}
}

// Subscribed matches the subscriber's stream globs against a path.
func (s *Subscriber) Subscribed(path string) bool {
	s.RLock()
	defer s.RUnlock()
	for stream := range s.streams {
		if g, err := glob.Compile(stream, '/'); err == nil {
			if g.Match(path) {
				return true
			}
		}
	}
	return false
}

func (s *Subscriber) handleOutbound(buf []byte) error {
	// prevents concurrent write to the websocket connection
	s.Lock()
	defer s.Unlock()
	s.c.SetWriteDeadline(time.Now().Add(writeWait))
	return s.c.WriteMessage(websocket.BinaryMessage, buf)
}

func (s *Subscriber) handleInbound(msg SubscribeMessage) error {
	if len(msg.Streams) == 0 {
		return nil
	}
	s.Lock()
	defer s.Unlock()
	m := map[string]struct{}{}
	for _, stream := range msg.Streams {
		if _, err := glob.Compile(stream, '/'); err != nil {
			return err
		}
		m[stream] = struct{}{}
	}
	s.streams = m
	return nil
}

func (s *Subscriber) consume(h *Hub) {
	defer func() {
		h.remove(s)
		close(s.done)
	}()

	s.c.SetPongHandler(func(string) error {
		return s.c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, buf, err := s.c.ReadMessage()
		if err != nil {
			return
		}
		msg := SubscribeMessage{}
		if err := msgpack.Unmarshal(buf, &msg); err != nil {
			continue
		}
		if err := s.handleInbound(msg); err != nil {
			if out, merr := msgpack.Marshal(ErrorMessage{Error: err.Error()}); merr == nil {
				s.handleOutbound(out)
			}
		}
	}
}

func (s *Subscriber) ping() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Lock()
			s.c.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.c.WriteMessage(websocket.PingMessage, []byte{})
			s.Unlock()
			if err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// Handler upgrades the request to a websocket subscription.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("stream: failed to upgrade connection: %v", err)
		return
	}
	sub := &Subscriber{
		c:       conn,
		done:    make(chan struct{}),
		streams: map[string]struct{}{},
	}
	h.add(sub)
	go sub.ping()
	go sub.consume(h)
}
