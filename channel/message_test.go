package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "request",
			msg: Message{
				ID:     7,
				GUID:   "page@1",
				Method: "goto",
				Params: json.RawMessage(`{"url":"https://example.com"}`),
			},
			want: `{"id":7,"guid":"page@1","method":"goto","params":{"url":"https://example.com"}}`,
		},
		{
			name: "response_result",
			msg: Message{
				ID:     7,
				Result: json.RawMessage(`{}`),
			},
			want: `{"id":7,"result":{}}`,
		},
		{
			name: "response_error",
			msg: Message{
				ID:    7,
				Error: &ErrorPayload{Name: "Error", Message: "boom", Stack: "at goto"},
			},
			want: `{"id":7,"error":{"name":"Error","message":"boom","stack":"at goto"}}`,
		},
		{
			name: "event",
			msg: Message{
				GUID:   "frame@1",
				Method: "navigated",
				Params: json.RawMessage(`{"url":"https://example.com"}`),
			},
			want: `{"guid":"frame@1","method":"navigated","params":{"url":"https://example.com"}}`,
		},
		{
			name: "root_scoped_event_omits_guid",
			msg: Message{
				Method: "__create__",
				Params: json.RawMessage(`{"type":"Browser","guid":"browser@1"}`),
			},
			want: `{"method":"__create__","params":{"type":"Browser","guid":"browser@1"}}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			var back Message
			require.NoError(t, json.Unmarshal(got, &back))
			assert.Equal(t, tt.msg.ID, back.ID)
			assert.Equal(t, tt.msg.GUID, back.GUID)
			assert.Equal(t, tt.msg.Method, back.Method)
		})
	}
}

func TestMessageUnmarshalIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	var msg Message
	err := json.Unmarshal([]byte(
		`{"id":3,"guid":"page@1","futureField":{"deep":[1,2,3]},"result":{"ok":true}}`,
	), &msg)
	require.NoError(t, err)
	assert.EqualValues(t, 3, msg.ID)
	assert.Equal(t, "page@1", msg.GUID)
	assert.JSONEq(t, `{"ok":true}`, string(msg.Result))
}

func TestMessageKindIsStructural(t *testing.T) {
	t.Parallel()

	request := Message{ID: 1, Method: "goto"}
	response := Message{ID: 1}
	event := Message{Method: "navigated"}

	assert.True(t, request.ID != 0 && request.Method != "")
	assert.True(t, response.ID != 0 && response.Method == "")
	assert.True(t, event.ID == 0 && event.Method != "")
}

func TestErrorPayloadAlwaysCarriesMessage(t *testing.T) {
	t.Parallel()

	got, err := json.Marshal(Message{ID: 1, Error: &ErrorPayload{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"error":{"message":""}}`, string(got))
}
