package traceevent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSONShape(t *testing.T) {
	ev := NewCompleteEvent("parse", 1500, 250, 42, 7, map[string]any{"detail": "chunk 3"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "parse", decoded["name"])
	assert.Equal(t, "X", decoded["ph"])
	assert.EqualValues(t, 1500, decoded["ts"])
	assert.EqualValues(t, 250, decoded["dur"])
	assert.EqualValues(t, 42, decoded["pid"])
	assert.EqualValues(t, 7, decoded["tid"])
	assert.Equal(t, map[string]any{"detail": "chunk 3"}, decoded["args"])
}

func TestEventOmitsEmptyOptionalFields(t *testing.T) {
	ev := NewMetadataEvent(MetaThreadName, 1, 2, map[string]any{"name": "worker"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"dur"`)
	assert.NotContains(t, string(data), `"cat"`)
}

func TestDecodeRaw(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name:      "bare array",
			input:     `[{"name":"a","ph":"X","ts":1},{"name":"b","ph":"X","ts":2}]`,
			wantCount: 2,
		},
		{
			name:      "object envelope",
			input:     `{"traceEvents":[{"name":"a","ph":"X","ts":1}],"displayTimeUnit":"ms"}`,
			wantCount: 1,
		},
		{
			name:      "empty input",
			input:     "   \n",
			wantCount: 0,
		},
		{
			name:      "envelope without events",
			input:     `{"otherData":{}}`,
			wantCount: 0,
		},
		{
			name:    "scalar input",
			input:   `42`,
			wantErr: true,
		},
		{
			name:    "malformed array",
			input:   `[{"name":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeRaw([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.wantCount)
		})
	}
}

func TestDecodeRawPreservesRecordsVerbatim(t *testing.T) {
	// A record with fields tracelite does not model must survive untouched.
	input := `[{"name":"gpu","ph":"X","ts":10,"dur":5,"tts":3,"cname":"terrible","sf":"0x1"}]`

	records, err := DecodeRaw([]byte(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"name":"gpu","ph":"X","ts":10,"dur":5,"tts":3,"cname":"terrible","sf":"0x1"}`, string(records[0]))
}

func TestDecode(t *testing.T) {
	input := `{"traceEvents":[{"name":"load","ph":"X","ts":100,"dur":40,"pid":1,"tid":9,"args":{"detail":"index"}}]}`

	events, err := Decode([]byte(input))
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "load", events[0].Name)
	assert.Equal(t, PhaseComplete, events[0].Phase)
	assert.EqualValues(t, 100, events[0].Timestamp)
	assert.EqualValues(t, 40, events[0].Duration)
	assert.EqualValues(t, 9, events[0].ThreadID)
	assert.Equal(t, "index", events[0].Args["detail"])
}

func TestEncodeRawRoundTrip(t *testing.T) {
	input := []json.RawMessage{
		json.RawMessage(`{"name":"a","ph":"X","ts":1}`),
		json.RawMessage(`{"name":"b","ph":"C","ts":2,"args":{"heap":12}}`),
	}

	data, err := EncodeRaw(input)
	require.NoError(t, err)

	records, err := DecodeRaw(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, string(input[0]), string(records[0]))
	assert.JSONEq(t, string(input[1]), string(records[1]))
}

func TestEncodeRawRejectsCorruptRecords(t *testing.T) {
	_, err := EncodeRaw([]json.RawMessage{json.RawMessage(`{"name":`)})
	require.Error(t, err)
}

func TestEncodeRawEmpty(t *testing.T) {
	data, err := EncodeRaw(nil)
	require.NoError(t, err)

	records, err := DecodeRaw(data)
	require.NoError(t, err)
	assert.Empty(t, records)
}
