package consumers

import (
	"errors"

	"github.com/mediamux/mediamux/internal/api/ws"
)

// InitWS wires the observer stream of any consumer into the websocket API:
// client sends {"type":"consumer","value":"<id>"} and receives that
// consumer's observer events as they fire.
func InitWS() {
	ws.HandleFunc("consumer", wsConsumer)
}

// observer stream vocabulary
var observerEvents = []string{
	"close", "pause", "resume", "producerpause", "producerresume",
	"score", "layerschange", "trace",
}

func wsConsumer(tr *ws.Transport, msg *ws.Message) error {
	cons := Get(msg.String())
	if cons == nil {
		return errors.New("consumer not found")
	}

	// observer subscribers must not block notification dispatch,
	// so events go through a queue and slow sockets drop
	queue := make(chan *ws.Message, 64)
	done := make(chan struct{})

	tr.OnClose(func() {
		close(done)
	})

	go func() {
		for {
			select {
			case m := <-queue:
				tr.Write(m)
			case <-done:
				return
			}
		}
	}()

	forward := func(event string) func(data any) {
		return func(data any) {
			select {
			case queue <- &ws.Message{Type: event, Value: data}:
			default:
			}
		}
	}

	for _, event := range observerEvents {
		cons.Observer().On(event, forward(event))
	}

	return nil
}
