package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfString(t *testing.T) {
	assert.Nil(t, parseConfString("mediamux.yaml"))
	assert.Nil(t, parseConfString("level=debug"))

	data := parseConfString("log.level=trace")
	require.NotNil(t, data)
	assert.Equal(t, "{log: {level: trace}}", string(data))

	data = parseConfString("worker.binary=/usr/bin/mediaworker")
	require.NotNil(t, data)
	assert.Equal(t, "{worker: {binary: /usr/bin/mediaworker}}", string(data))
}

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("MEDIAMUX_TEST_PASS", "secret")

	s := replaceEnvVars("password: ${MEDIAMUX_TEST_PASS}")
	assert.Equal(t, "password: secret", s)

	s = replaceEnvVars("binary: ${MEDIAMUX_TEST_MISSING:mediaworker}")
	assert.Equal(t, "binary: mediaworker", s)

	s = replaceEnvVars("no vars here")
	assert.Equal(t, "no vars here", s)
}
