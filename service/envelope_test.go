package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/bedrock/jsonutil"
)

func TestEnvelopeTracksPresence(t *testing.T) {
	var env Envelope
	require.NoError(t, jsonutil.Unmarshal([]byte(`{"status":"ok","response-time-ns":1200,"query":{"event":"ok"}}`), &env))

	assert.True(t, env.HasStatus)
	assert.True(t, env.OK())
	assert.False(t, env.HasResponse())
	assert.JSONEq(t, `"ok"`, string(env.Result()))
	assert.Len(t, env.Extra, 2)

	data, err := jsonutil.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","response-time-ns":1200,"query":{"event":"ok"}}`, string(data))
}

func TestEnvelopeErrorMessage(t *testing.T) {
	env := Envelope{Error: jsonutil.RawMessage(`"Missing 'event'"`)}
	assert.Equal(t, "Missing 'event'", env.ErrorMessage())

	env = Envelope{Error: jsonutil.RawMessage(`["a","b"]`)}
	assert.Equal(t, `["a","b"]`, env.ErrorMessage())

	env = Envelope{}
	assert.Empty(t, env.ErrorMessage())
}

func TestEnvelopeNonStringStatusIsFailure(t *testing.T) {
	var env Envelope
	require.NoError(t, jsonutil.Unmarshal([]byte(`{"status":500}`), &env))
	assert.False(t, env.OK())
	assert.Equal(t, "500", env.Status)
}
