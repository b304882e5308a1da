// Package consumers owns the id -> Consumer registry on top of the worker
// channel: it mints ids, issues transport.consume, routes notifications to
// the right consumer and deregisters on the internal close signals.
package consumers

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mediamux/mediamux/internal/api"
	"github.com/mediamux/mediamux/internal/app"
	"github.com/mediamux/mediamux/internal/worker"
	"github.com/mediamux/mediamux/pkg/channel"
	"github.com/mediamux/mediamux/pkg/consumer"
	"github.com/rs/zerolog"
)

func Init() {
	log = app.GetLogger("consumers")

	ch = worker.GetChannel()

	worker.HandleExit(engineExited)

	api.HandleFunc("api/consumers", apiConsumers)
}

// engineExited - engine process is gone, so is every transport
func engineExited() {
	mu.Lock()
	closed := make([]*consumer.Consumer, 0, len(items))
	for id, cons := range items {
		closed = append(closed, cons)
		delete(items, id)
	}
	mu.Unlock()

	for _, cons := range closed {
		cons.TransportClosed()
	}
}

type CreateOptions struct {
	RouterID        string
	TransportID     string
	ProducerID      string
	Kind            string
	RTPParameters   consumer.RTPParameters
	Paused          bool
	PreferredLayers *consumer.Layers
	AppData         any
}

// Create asks the engine to start consuming the producer on the given
// transport and registers the resulting Consumer.
func Create(opts CreateOptions) (*consumer.Consumer, error) {
	if ch == nil {
		return nil, errors.New("consumers: worker disabled")
	}

	internal := channel.Internal{
		RouterID:    opts.RouterID,
		TransportID: opts.TransportID,
		ConsumerID:  uuid.NewString(),
	}

	req := struct {
		ProducerID      string                 `json:"producerId"`
		Kind            string                 `json:"kind"`
		RTPParameters   consumer.RTPParameters `json:"rtpParameters"`
		Paused          bool                   `json:"paused,omitempty"`
		PreferredLayers *consumer.Layers       `json:"preferredLayers,omitempty"`
	}{opts.ProducerID, opts.Kind, opts.RTPParameters, opts.Paused, opts.PreferredLayers}

	data, err := ch.Request("transport.consume", internal, req)
	if err != nil {
		return nil, err
	}

	// creation snapshot mirrored from the engine
	var status struct {
		Type            string           `json:"type"`
		Paused          bool             `json:"paused"`
		ProducerPaused  bool             `json:"producerPaused"`
		Score           consumer.Score   `json:"score"`
		PreferredLayers *consumer.Layers `json:"preferredLayers"`
	}
	if err = json.Unmarshal(data, &status); err != nil {
		return nil, err
	}

	cons := consumer.New(ch, consumer.Options{
		ID:              internal.ConsumerID,
		ProducerID:      opts.ProducerID,
		Internal:        internal,
		Kind:            opts.Kind,
		Type:            status.Type,
		RTPParameters:   opts.RTPParameters,
		Paused:          status.Paused,
		ProducerPaused:  status.ProducerPaused,
		Score:           status.Score,
		PreferredLayers: status.PreferredLayers,
		AppData:         opts.AppData,
	})

	register(cons, internal)

	log.Debug().Str("id", cons.ID()).Str("producer", opts.ProducerID).Str("kind", opts.Kind).Msg("[consumers] create")

	return cons, nil
}

func Get(id string) *consumer.Consumer {
	mu.Lock()
	defer mu.Unlock()
	return items[id]
}

func All() []*consumer.Consumer {
	mu.Lock()
	defer mu.Unlock()

	all := make([]*consumer.Consumer, 0, len(items))
	for _, cons := range items {
		all = append(all, cons)
	}
	return all
}

var log zerolog.Logger
var ch *channel.Channel

var (
	mu    sync.Mutex
	items = map[string]*consumer.Consumer{}
)

func register(cons *consumer.Consumer, internal channel.Internal) {
	mu.Lock()
	items[internal.ConsumerID] = cons
	mu.Unlock()

	ch.Subscribe(internal.ConsumerID, cons.HandleNotification)

	cons.On("@close", func(any) {
		unregister(internal.ConsumerID)

		// the engine still holds its half, drop it in background
		go func() {
			if _, err := ch.Request("transport.closeConsumer", internal, nil); err != nil {
				log.Debug().Err(err).Str("id", internal.ConsumerID).Msg("[consumers] close")
			}
		}()
	})

	cons.On("@producerclose", func(any) {
		// engine closed its half already
		unregister(internal.ConsumerID)
	})
}

func unregister(id string) {
	mu.Lock()
	delete(items, id)
	mu.Unlock()

	if ch != nil {
		ch.Unsubscribe(id)
	}
}
