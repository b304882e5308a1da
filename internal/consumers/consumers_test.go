package consumers

import (
	"encoding/json"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/mediamux/mediamux/pkg/channel"
	"github.com/mediamux/mediamux/pkg/consumer"
	"github.com/mediamux/mediamux/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake engine on the far side of a net.Pipe speaking the channel protocol

type engine struct {
	conn   net.Conn
	closed chan string // consumer ids the engine was told to drop
}

func (e *engine) serve() {
	for {
		b, err := readFrame(e.conn)
		if err != nil {
			return
		}

		var req struct {
			ID       int              `json:"id"`
			Method   string           `json:"method"`
			Internal channel.Internal `json:"internal"`
		}
		if json.Unmarshal(b, &req) != nil {
			return
		}

		switch req.Method {
		case "transport.consume":
			e.reply(req.ID, map[string]any{
				"type":           core.TypeSimulcast,
				"paused":         false,
				"producerPaused": false,
				"score":          map[string]any{"score": 10, "producerScore": 10, "producerScores": []int{10, 10}},
			})
		case "transport.closeConsumer":
			e.closed <- req.Internal.ConsumerID
			e.reply(req.ID, nil)
		default:
			e.reply(req.ID, nil)
		}
	}
}

func (e *engine) reply(id int, data any) {
	b, _ := json.Marshal(map[string]any{"id": id, "accepted": true, "data": data})
	_ = writeFrame(e.conn, b)
}

func (e *engine) notify(targetID, event string, data any) {
	b, _ := json.Marshal(map[string]any{"targetId": targetID, "event": event, "data": data})
	_ = writeFrame(e.conn, b)
}

// test side netstring codec, same framing as pkg/channel

func writeFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(append(append([]byte(strconv.Itoa(len(payload))+":"), payload...), ','))
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var size int
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		if b[0] == ':' {
			break
		}
		size = size*10 + int(b[0]-'0')
	}

	payload := make([]byte, size+1)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload[:size], nil
}

func setup(t *testing.T) *engine {
	log = zerolog.Nop()

	left, right := net.Pipe()

	ch = channel.NewChannel(left)
	go func() {
		_ = ch.Serve()
	}()

	eng := &engine{conn: right, closed: make(chan string, 1)}
	go eng.serve()

	t.Cleanup(func() {
		_ = ch.Close()
		ch = nil

		mu.Lock()
		items = map[string]*consumer.Consumer{}
		mu.Unlock()
	})

	return eng
}

func create(t *testing.T) *consumer.Consumer {
	cons, err := Create(CreateOptions{
		RouterID:    "r1",
		TransportID: "t1",
		ProducerID:  "p1",
		Kind:        core.KindVideo,
	})
	require.NoError(t, err)
	return cons
}

func TestCreate(t *testing.T) {
	setup(t)

	cons := create(t)

	// snapshot comes from the engine reply
	assert.Equal(t, core.TypeSimulcast, cons.Type())
	assert.Equal(t, []int{10, 10}, cons.Score().ProducerScores)
	assert.False(t, cons.Paused())

	assert.Same(t, cons, Get(cons.ID()))
	assert.Len(t, All(), 1)
}

func TestNotificationRouting(t *testing.T) {
	eng := setup(t)

	cons1 := create(t)
	cons2 := create(t)

	scores := make(chan consumer.Score, 1)
	cons1.Observer().On("score", func(data any) {
		scores <- data.(consumer.Score)
	})

	eng.notify(cons1.ID(), "score", map[string]any{"score": 7, "producerScore": 7, "producerScores": []int{7}})

	score := <-scores
	assert.Equal(t, 7, score.Score)

	// addressed to cons1 only
	assert.Equal(t, 10, cons2.Score().Score)
}

func TestCloseDeregisters(t *testing.T) {
	eng := setup(t)

	cons := create(t)
	id := cons.ID()

	require.NoError(t, cons.Close())

	assert.Nil(t, Get(id))

	// engine hears about it in background
	select {
	case closedID := <-eng.closed:
		assert.Equal(t, id, closedID)
	case <-time.After(time.Second):
		t.Fatal("engine was not told to close the consumer")
	}
}

func TestProducerCloseDeregisters(t *testing.T) {
	eng := setup(t)

	cons := create(t)
	id := cons.ID()

	closed := make(chan struct{})
	cons.On("producerclose", func(any) {
		close(closed)
	})

	eng.notify(id, "producerclose", nil)

	<-closed
	require.True(t, cons.Closed())

	// @producerclose handler runs on the same dispatch, registry is clean
	assert.Nil(t, Get(id))
}

func TestEngineExit(t *testing.T) {
	setup(t)

	cons := create(t)

	engineExited()

	assert.True(t, cons.Closed())
	assert.Nil(t, Get(cons.ID()))
}
