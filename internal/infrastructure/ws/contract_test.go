package ws_test

import (
	"encoding/json"
	"testing"

	"github.com/hilthontt/proctor/internal/infrastructure/ws"
	"github.com/stretchr/testify/require"
)

func Test_DecodeInbound(t *testing.T) {
	t.Run("decodes a join", func(t *testing.T) {
		req := require.New(t)

		evt, err := ws.DecodeInbound([]byte(`{"type":"join_room","data":{"roomCode":"ABCDE","userName":"Alice"}}`))
		req.NoError(err)
		req.Equal(ws.JoinRoom, evt.Type)

		var payload ws.MemberPayload
		req.NoError(evt.Bind(&payload))
		req.Equal("ABCDE", payload.RoomCode)
		req.Equal("Alice", payload.UserName)
	})

	t.Run("missing data binds as empty", func(t *testing.T) {
		req := require.New(t)

		evt, err := ws.DecodeInbound([]byte(`{"type":"close_room"}`))
		req.NoError(err)

		var payload ws.RoomPayload
		req.NoError(evt.Bind(&payload))
		req.Empty(payload.RoomCode)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		req := require.New(t)

		_, err := ws.DecodeInbound([]byte(`not json`))
		req.ErrorIs(err, ws.ErrMalformedEvent)

		_, err = ws.DecodeInbound([]byte(`{"data":{}}`))
		req.ErrorIs(err, ws.ErrMalformedEvent)
	})

	t.Run("rejects mistyped data", func(t *testing.T) {
		req := require.New(t)

		evt, err := ws.DecodeInbound([]byte(`{"type":"create_room","data":{"roomCode":42}}`))
		req.NoError(err)

		var payload ws.RoomPayload
		req.ErrorIs(evt.Bind(&payload), ws.ErrMalformedEvent)
	})
}

func Test_OutboundEnvelope(t *testing.T) {
	req := require.New(t)

	// Given a cheating log and a room closed event
	raw, err := json.Marshal(ws.NewCheatingLog("ABCDE", "[2024-01-01 10:00:00] Cheating detected for student: Alice"))
	req.NoError(err)
	req.JSONEq(`{"type":"cheating_log","roomId":"ABCDE","data":{"logMessage":"[2024-01-01 10:00:00] Cheating detected for student: Alice"}}`, string(raw))

	raw, err = json.Marshal(ws.NewRoomClosed("ABCDE"))
	req.NoError(err)
	req.JSONEq(`{"type":"room_closed","roomId":"ABCDE","data":{}}`, string(raw))

	raw, err = json.Marshal(ws.NewStudentJoined("ABCDE", "Alice"))
	req.NoError(err)
	req.JSONEq(`{"type":"student_joined","roomId":"ABCDE","data":{"userName":"Alice"}}`, string(raw))
}
