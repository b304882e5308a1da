// Package consumer implements the endpoint object for one RTP stream
// forwarded from a producer to a remote peer. All packet work happens in the
// engine process, the Consumer only mirrors its state: commands go out as
// channel requests, engine pushes come back as notifications, both feed two
// event streams (primary for the owning layer, observer for monitoring).
package consumer

import (
	"encoding/json"
	"sync"

	"github.com/mediamux/mediamux/pkg/channel"
	"github.com/mediamux/mediamux/pkg/core"
)

// Channel - transport contract to the engine, satisfied by *channel.Channel
type Channel interface {
	Request(method string, internal channel.Internal, data any) (json.RawMessage, error)
}

// Options - creation snapshot, mirroring the engine's consume response
type Options struct {
	ID              string
	ProducerID      string
	Internal        channel.Internal
	Kind            string // core.KindAudio, core.KindVideo
	Type            string // core.TypeSimple, core.TypeSimulcast...
	RTPParameters   RTPParameters
	Paused          bool
	ProducerPaused  bool
	Score           Score
	PreferredLayers *Layers
	AppData         any
}

type Consumer struct {
	id            string
	producerID    string
	internal      channel.Internal
	kind          string
	typ           string
	rtpParameters RTPParameters
	appData       any

	channel Channel

	mu              sync.Mutex
	closed          bool
	paused          bool
	producerPaused  bool
	priority        int
	score           Score
	preferredLayers *Layers
	currentLayers   *Layers

	events   core.Emitter // primary stream + internal @close/@producerclose
	observer core.Emitter
}

func New(ch Channel, opts Options) *Consumer {
	return &Consumer{
		id:              opts.ID,
		producerID:      opts.ProducerID,
		internal:        opts.Internal,
		kind:            opts.Kind,
		typ:             opts.Type,
		rtpParameters:   opts.RTPParameters,
		appData:         opts.AppData,
		channel:         ch,
		paused:          opts.Paused,
		producerPaused:  opts.ProducerPaused,
		priority:        DefaultPriority,
		score:           opts.Score,
		preferredLayers: opts.PreferredLayers,
	}
}

func (c *Consumer) ID() string                   { return c.id }
func (c *Consumer) ProducerID() string           { return c.producerID }
func (c *Consumer) Kind() string                 { return c.kind }
func (c *Consumer) Type() string                 { return c.typ }
func (c *Consumer) RTPParameters() RTPParameters { return c.rtpParameters }

// AppData - opaque application bag, fixed at construction. There is no
// setter, reassignment is rejected by design.
func (c *Consumer) AppData() any { return c.appData }

func (c *Consumer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Consumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Consumer) ProducerPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.producerPaused
}

func (c *Consumer) Priority() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.priority
}

func (c *Consumer) Score() Score {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

func (c *Consumer) PreferredLayers() *Layers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preferredLayers
}

func (c *Consumer) CurrentLayers() *Layers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLayers
}

// On subscribes to the primary stream: transportclose, producerclose,
// producerpause, producerresume, pause, resume, score, layerschange, trace.
// The internal @close and @producerclose signals fire here too, they belong
// to the owning collaborator only.
func (c *Consumer) On(event string, f core.EventFunc) {
	c.events.On(event, f)
}

// Observer - independent monitoring stream: close, pause, resume, score,
// layerschange, trace. Subscribers here cannot affect the primary stream.
func (c *Consumer) Observer() *core.Emitter {
	return &c.observer
}

// Pause asks the engine to stop sending RTP for this consumer
func (c *Consumer) Pause() error {
	if err := c.live("pause"); err != nil {
		return err
	}

	if _, err := c.channel.Request("consumer.pause", c.internal, nil); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		// closed while the request was in flight, drop the effect
		c.mu.Unlock()
		return nil
	}
	wasPaused := c.paused
	c.paused = true
	c.mu.Unlock()

	if !wasPaused {
		c.events.Emit("pause", nil)
		c.observer.Emit("pause", nil)
	}
	return nil
}

func (c *Consumer) Resume() error {
	if err := c.live("resume"); err != nil {
		return err
	}

	if _, err := c.channel.Request("consumer.resume", c.internal, nil); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	wasPaused := c.paused
	c.paused = false
	c.mu.Unlock()

	if wasPaused {
		c.events.Emit("resume", nil)
		c.observer.Emit("resume", nil)
	}
	return nil
}

// SetPreferredLayers selects the target spatial/temporal layers for
// simulcast/SVC consumers. The engine may clamp the request, the cached
// value is what the engine returns, not what was asked for.
func (c *Consumer) SetPreferredLayers(layers Layers) error {
	if layers.SpatialLayer < 0 {
		return &ParameterError{Op: "setPreferredLayers", Reason: "negative spatial layer"}
	}
	if layers.TemporalLayer != nil && *layers.TemporalLayer < 0 {
		return &ParameterError{Op: "setPreferredLayers", Reason: "negative temporal layer"}
	}
	if err := c.live("setPreferredLayers"); err != nil {
		return err
	}

	data, err := c.channel.Request("consumer.setPreferredLayers", c.internal, layers)
	if err != nil {
		return err
	}

	preferred := layers
	if len(data) > 0 && string(data) != "null" {
		if err = json.Unmarshal(data, &preferred); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if !c.closed {
		c.preferredLayers = &preferred
	}
	c.mu.Unlock()
	return nil
}

// SetPriority - positive integer, higher wins when the engine distributes
// bandwidth between consumers
func (c *Consumer) SetPriority(priority int) error {
	return c.setPriority("setPriority", priority)
}

func (c *Consumer) UnsetPriority() error {
	return c.setPriority("unsetPriority", DefaultPriority)
}

func (c *Consumer) setPriority(op string, priority int) error {
	if priority < 1 {
		return &ParameterError{Op: op, Reason: "priority must be positive"}
	}
	if err := c.live(op); err != nil {
		return err
	}

	req := struct {
		Priority int `json:"priority"`
	}{priority}

	data, err := c.channel.Request("consumer.setPriority", c.internal, req)
	if err != nil {
		return err
	}

	// engine may adjust, trust the echo when there is one
	if len(data) > 0 && string(data) != "null" {
		if err = json.Unmarshal(data, &req); err != nil {
			return err
		}
		priority = req.Priority
	}

	c.mu.Lock()
	if !c.closed {
		c.priority = priority
	}
	c.mu.Unlock()
	return nil
}

func (c *Consumer) RequestKeyFrame() error {
	if err := c.live("requestKeyFrame"); err != nil {
		return err
	}
	_, err := c.channel.Request("consumer.requestKeyFrame", c.internal, nil)
	return err
}

// EnableTraceEvent - empty types means every recognized type
func (c *Consumer) EnableTraceEvent(types ...string) error {
	if err := c.live("enableTraceEvent"); err != nil {
		return err
	}

	if len(types) == 0 {
		types = TraceEventTypes
	}

	req := struct {
		Types []string `json:"types"`
	}{types}

	_, err := c.channel.Request("consumer.enableTraceEvent", c.internal, req)
	return err
}

// Dump - engine side diagnostic snapshot, passed through uncached
func (c *Consumer) Dump() (json.RawMessage, error) {
	if err := c.live("dump"); err != nil {
		return nil, err
	}
	return c.channel.Request("consumer.dump", c.internal, nil)
}

// GetStats - consumer and mirrored producer stat records, passed through
func (c *Consumer) GetStats() (json.RawMessage, error) {
	if err := c.live("getStats"); err != nil {
		return nil, err
	}
	return c.channel.Request("consumer.getStats", c.internal, nil)
}

// Close marks the consumer closed. Terminal: no request goes out after this
// and replies already in flight are discarded on arrival. The @close signal
// lets the owning collaborator deregister and tell the engine.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.events.Emit("@close", nil)
	c.events.Emit("close", nil)
	c.observer.Emit("close", nil)
	return nil
}

// TransportClosed - parent transport torn down, same terminal transition as
// Close but the primary stream hears transportclose
func (c *Consumer) TransportClosed() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.events.Emit("transportclose", nil)
	c.observer.Emit("close", nil)
}

// HandleNotification applies one engine push. Called on the channel read
// loop, so notifications for this consumer apply in delivery order.
// Unrecognized events are dropped for forward compatibility.
func (c *Consumer) HandleNotification(event string, data json.RawMessage) {
	switch event {
	case "producerclose":
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.closed = true
		c.mu.Unlock()

		c.events.Emit("@producerclose", nil)
		c.events.Emit("producerclose", nil)
		c.observer.Emit("close", nil)

	case "producerpause":
		c.mu.Lock()
		if c.closed || c.producerPaused {
			c.mu.Unlock()
			return
		}
		c.producerPaused = true
		c.mu.Unlock()

		c.events.Emit("producerpause", nil)
		c.observer.Emit("producerpause", nil)

	case "producerresume":
		c.mu.Lock()
		if c.closed || !c.producerPaused {
			c.mu.Unlock()
			return
		}
		c.producerPaused = false
		c.mu.Unlock()

		c.events.Emit("producerresume", nil)
		c.observer.Emit("producerresume", nil)

	case "score":
		var score Score
		if json.Unmarshal(data, &score) != nil {
			return
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		// wholesale replace, no field merge
		c.score = score
		c.mu.Unlock()

		c.events.Emit("score", score)
		c.observer.Emit("score", score)

	case "layerschange":
		var layers *Layers
		if len(data) > 0 && string(data) != "null" {
			layers = new(Layers)
			if json.Unmarshal(data, layers) != nil {
				return
			}
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		// nil means the engine stopped sending any layer
		c.currentLayers = layers
		c.mu.Unlock()

		c.events.Emit("layerschange", layers)
		c.observer.Emit("layerschange", layers)

	case "trace":
		var trace TraceEvent
		if json.Unmarshal(data, &trace) != nil {
			return
		}

		if c.Closed() {
			return
		}

		c.events.Emit("trace", trace)
		c.observer.Emit("trace", trace)
	}
}

func (c *Consumer) live(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &InvalidStateError{Op: op}
	}
	return nil
}
