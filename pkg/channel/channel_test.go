package channel

import (
	"bytes"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundtrip(t *testing.T) {
	buf := bytes.NewBuffer(nil)

	require.NoError(t, writeFrame(buf, []byte(`{"id":1}`)))
	assert.Equal(t, `8:{"id":1},`, buf.String())

	payload, err := readFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(payload))
}

func TestFrameErrors(t *testing.T) {
	_, err := readFrame(bytes.NewBufferString("abc:xyz,"))
	assert.Error(t, err)

	_, err = readFrame(bytes.NewBufferString("99999999:x"))
	assert.Error(t, err)

	_, err = readFrame(bytes.NewBufferString("3:abc!"))
	assert.Error(t, err)
}

// engine - fake worker on the far side of a net.Pipe
type engine struct {
	conn net.Conn
}

func (e *engine) read(t *testing.T) (req map[string]any) {
	b, err := readFrame(e.conn)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &req))
	return
}

func (e *engine) write(t *testing.T, v any) {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, writeFrame(e.conn, b))
}

func newTestChannel(t *testing.T) (*Channel, *engine) {
	left, right := net.Pipe()

	ch := NewChannel(left)
	go func() {
		_ = ch.Serve()
	}()

	t.Cleanup(func() {
		_ = ch.Close()
	})

	return ch, &engine{conn: right}
}

func TestRequestReply(t *testing.T) {
	ch, eng := newTestChannel(t)

	go func() {
		req := eng.read(t)
		eng.write(t, map[string]any{
			"id":       req["id"],
			"accepted": true,
			"data":     map[string]any{"paused": true},
		})
	}()

	data, err := ch.Request("consumer.pause", Internal{ConsumerID: "c1"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"paused":true}`, string(data))
}

func TestRequestAddressing(t *testing.T) {
	ch, eng := newTestChannel(t)

	got := make(chan map[string]any, 1)
	go func() {
		req := eng.read(t)
		got <- req
		eng.write(t, map[string]any{"id": req["id"], "accepted": true})
	}()

	_, err := ch.Request("consumer.setPriority",
		Internal{RouterID: "r1", TransportID: "t1", ConsumerID: "c1"},
		map[string]int{"priority": 2})
	require.NoError(t, err)

	req := <-got
	assert.Equal(t, "consumer.setPriority", req["method"])
	internal := req["internal"].(map[string]any)
	assert.Equal(t, "r1", internal["routerId"])
	assert.Equal(t, "t1", internal["transportId"])
	assert.Equal(t, "c1", internal["consumerId"])
	data := req["data"].(map[string]any)
	assert.Equal(t, float64(2), data["priority"])
}

func TestRequestError(t *testing.T) {
	ch, eng := newTestChannel(t)

	go func() {
		req := eng.read(t)
		eng.write(t, map[string]any{
			"id":     req["id"],
			"error":  "Error",
			"reason": "unknown consumer",
		})
	}()

	_, err := ch.Request("consumer.dump", Internal{ConsumerID: "nope"}, nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "consumer.dump", reqErr.Method)
	assert.Equal(t, "unknown consumer", reqErr.Reason)
}

func TestNotifications(t *testing.T) {
	ch, eng := newTestChannel(t)

	events := make(chan string, 2)
	ch.Subscribe("c1", func(event string, data json.RawMessage) {
		events <- event + ":" + string(data)
	})

	eng.write(t, map[string]any{"targetId": "c1", "event": "score", "data": map[string]int{"score": 9}})
	eng.write(t, map[string]any{"targetId": "c1", "event": "producerpause"})

	// delivery order is preserved
	assert.Equal(t, `score:{"score":9}`, <-events)
	assert.Equal(t, "producerpause:", <-events)

	// unknown target is dropped without error
	eng.write(t, map[string]any{"targetId": "ghost", "event": "score"})

	ch.Unsubscribe("c1")
	eng.write(t, map[string]any{"targetId": "c1", "event": "score"})

	select {
	case s := <-events:
		t.Fatalf("unexpected event %q", s)
	default:
	}
}

func TestCloseFailsPending(t *testing.T) {
	ch, eng := newTestChannel(t)

	done := make(chan error, 1)
	go func() {
		_, err := ch.Request("consumer.dump", Internal{ConsumerID: "c1"}, nil)
		done <- err
	}()

	// swallow the request, then drop the connection
	eng.read(t)
	_ = eng.conn.Close()

	var reqErr *RequestError
	require.ErrorAs(t, <-done, &reqErr)

	// channel is dead for new requests too
	_, err := ch.Request("consumer.dump", Internal{ConsumerID: "c1"}, nil)
	require.ErrorAs(t, err, &reqErr)
}