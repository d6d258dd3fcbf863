package apicall

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBody(t *testing.T) {
	assert.True(t, DecodeBody(nil).IsNull())
	assert.Equal(t, BodyText, DecodeBody([]byte("<html>")).Kind())
	assert.Equal(t, BodyJSON, DecodeBody([]byte(`[1,2]`)).Kind())
	assert.True(t, DecodeBody([]byte("null")).IsNull(), "json null is a null body")
}

func TestEnvelope(t *testing.T) {
	out := Outcome{Status: 200, OK: true, Body: DecodeBody([]byte(`{"tables":[{"id":"People"}]}`))}
	tables, ok := out.Envelope("tables").Body.Array()
	require.True(t, ok)
	assert.Len(t, tables, 1)

	errOut := Outcome{Status: 404, Body: DecodeBody([]byte(`{"error":"nope"}`))}
	assert.Equal(t, errOut, errOut.Envelope("tables"), "missing field leaves the body alone")

	text := Outcome{Body: TextBody("oops")}
	assert.Equal(t, text, text.Envelope("tables"))
}

func TestBodyDecodeAndMarshal(t *testing.T) {
	body := DecodeBody([]byte(`{"id":3,"fields":{"Name":"Ada"}}`))

	var rec struct {
		ID     int            `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	require.NoError(t, body.Decode(&rec))
	assert.Equal(t, 3, rec.ID)
	assert.Equal(t, "Ada", rec.Fields["Name"])

	assert.ErrorIs(t, TextBody("x").Decode(&rec), ErrNotJSON)

	data, err := json.Marshal(map[string]Body{"a": body, "b": TextBody("t"), "c": NullBody()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"id":3,"fields":{"Name":"Ada"}},"b":"t","c":null}`, string(data))
	assert.Equal(t, "null", NullBody().String())
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "dry run", StatusText(StatusDryRun))
	assert.Equal(t, "connection failed", StatusText(StatusConnectionFailed))
	assert.Equal(t, "HTTP 201", StatusText(201))
}
