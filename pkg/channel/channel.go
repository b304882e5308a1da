// Package channel implements the request/notification transport to the
// out of process media engine. Requests are correlated with replies by a
// sequence id, notifications are demultiplexed by target id. One read loop
// per engine connection, many addressable objects on top of it.
package channel

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Internal - addressing triple for engine requests
type Internal struct {
	RouterID    string `json:"routerId,omitempty"`
	TransportID string `json:"transportId,omitempty"`
	ConsumerID  string `json:"consumerId,omitempty"`
}

type request struct {
	ID       uint32   `json:"id"`
	Method   string   `json:"method"`
	Internal Internal `json:"internal"`
	Data     any      `json:"data,omitempty"`
}

// message - reply (ID set) or notification (TargetID set)
type message struct {
	ID       uint32          `json:"id,omitempty"`
	Accepted bool            `json:"accepted,omitempty"`
	Error    string          `json:"error,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	TargetID string          `json:"targetId,omitempty"`
	Event    string          `json:"event,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type NotifyFunc func(event string, data json.RawMessage)

type Channel struct {
	Log zerolog.Logger

	conn io.ReadWriteCloser

	wrMu sync.Mutex // serialize frame writes

	mu       sync.Mutex
	seq      uint32
	pending  map[uint32]chan message
	handlers map[string]NotifyFunc
	closed   bool
	err      error
}

func NewChannel(conn io.ReadWriteCloser) *Channel {
	return &Channel{
		Log:      zerolog.Nop(),
		conn:     conn,
		pending:  map[uint32]chan message{},
		handlers: map[string]NotifyFunc{},
	}
}

// Request sends an addressed request and blocks until the engine replies or
// the channel dies. No retries and no timeouts here - both belong to callers.
func (c *Channel) Request(method string, internal Internal, data any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		err := c.err
		c.mu.Unlock()
		return nil, &RequestError{Method: method, Reason: err.Error()}
	}
	c.seq++
	id := c.seq
	wait := make(chan message, 1)
	c.pending[id] = wait
	c.mu.Unlock()

	b, err := json.Marshal(request{ID: id, Method: method, Internal: internal, Data: data})
	if err != nil {
		c.forget(id)
		return nil, err
	}

	c.Log.Trace().Uint32("id", id).Str("method", method).Msg("[channel] request")

	c.wrMu.Lock()
	err = writeFrame(c.conn, b)
	c.wrMu.Unlock()

	if err != nil {
		c.forget(id)
		return nil, &RequestError{Method: method, Reason: err.Error()}
	}

	msg, ok := <-wait
	if !ok {
		c.mu.Lock()
		err = c.err
		c.mu.Unlock()
		return nil, &RequestError{Method: method, Reason: err.Error()}
	}

	if msg.Error != "" {
		return nil, &RequestError{Method: method, Reason: msg.Reason}
	}

	return msg.Data, nil
}

// Subscribe routes notifications with this target id to f. Handlers run on
// the read loop in delivery order and must not block.
func (c *Channel) Subscribe(targetID string, f NotifyFunc) {
	c.mu.Lock()
	c.handlers[targetID] = f
	c.mu.Unlock()
}

func (c *Channel) Unsubscribe(targetID string) {
	c.mu.Lock()
	delete(c.handlers, targetID)
	c.mu.Unlock()
}

// Serve runs the read loop until the connection dies. Always returns a
// non-nil error, after failing every pending request with it.
func (c *Channel) Serve() error {
	var err error

	for {
		var b []byte
		if b, err = readFrame(c.conn); err != nil {
			break
		}

		var msg message
		if err2 := json.Unmarshal(b, &msg); err2 != nil {
			c.Log.Warn().Err(err2).Msg("[channel] bad frame")
			continue
		}

		if msg.TargetID != "" {
			c.mu.Lock()
			f := c.handlers[msg.TargetID]
			c.mu.Unlock()

			if f != nil {
				f(msg.Event, msg.Data)
			} else {
				c.Log.Trace().Str("target", msg.TargetID).Str("event", msg.Event).Msg("[channel] no subscriber")
			}
			continue
		}

		c.mu.Lock()
		wait := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.mu.Unlock()

		if wait != nil {
			wait <- msg
		} else {
			// late reply for a forgotten request
			c.Log.Trace().Uint32("id", msg.ID).Msg("[channel] unknown reply")
		}
	}

	c.shutdown(err)
	return err
}

func (c *Channel) Close() error {
	err := c.conn.Close()
	c.shutdown(io.ErrClosedPipe)
	return err
}

func (c *Channel) forget(id uint32) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Channel) shutdown(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	for id, wait := range c.pending {
		close(wait)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	_ = c.conn.Close()
}
