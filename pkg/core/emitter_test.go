package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter(t *testing.T) {
	var e Emitter

	var got []string
	e.On("pause", func(data any) {
		got = append(got, "pause1")
	})
	e.On("pause", func(data any) {
		got = append(got, "pause2")
	})
	e.On("resume", func(data any) {
		got = append(got, "resume")
	})

	e.Emit("pause", nil)
	assert.Equal(t, []string{"pause1", "pause2"}, got)

	// no subscribers is fine
	e.Emit("score", 42)
	assert.Equal(t, []string{"pause1", "pause2"}, got)
}

func TestEmitterIndependence(t *testing.T) {
	var primary, observer Emitter

	var n int
	observer.On("close", func(any) { n++ })

	// primary emission never reaches observer subscribers
	primary.Emit("close", nil)
	assert.Zero(t, n)

	observer.Emit("close", nil)
	assert.Equal(t, 1, n)
}

func TestEmitterPayload(t *testing.T) {
	var e Emitter

	var got any
	e.On("score", func(data any) { got = data })

	e.Emit("score", 9)
	assert.Equal(t, 9, got)
}
