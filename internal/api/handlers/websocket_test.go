package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/bloghub/internal/testutil"
	"github.com/dom/bloghub/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialFeed(t *testing.T, ts *testutil.TestServer, token string) *ws.Conn {
	t.Helper()
	conn, resp, err := ws.DefaultDialer.Dial(ts.WebSocketURL(token), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *ws.Conn) websocket.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// subscribe sends SUBSCRIBE and waits for the acknowledgement, which also
// means the hub has registered the connection.
func subscribe(t *testing.T, conn *ws.Conn, ids ...uuid.UUID) {
	t.Helper()
	payload, err := json.Marshal(websocket.SubscribePayload{PostIDs: ids})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(websocket.Message{Type: websocket.MessageTypeSubscribe, Payload: payload}))
	msg := readMessage(t, conn)
	require.Equal(t, websocket.MessageTypeSubscribed, msg.Type)
}

func TestWebSocket_ReceivesPostEvents(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	conn := dialFeed(t, ts, "")
	subscribe(t, conn)

	resp := do(t, http.MethodPost, ts.APIURL("/posts"), map[string]interface{}{
		"title":       "Live",
		"description": testutil.LongDescription,
	}, token)
	var created struct {
		ID string `json:"id"`
	}
	testutil.AssertJSONResponse(t, resp, &created)
	resp.Body.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypePostCreated, msg.Type)
	require.NotNil(t, msg.PostID)
	assert.Equal(t, created.ID, msg.PostID.String())

	resp = do(t, http.MethodPost, ts.APIURL("/posts/"+created.ID+"/like"), nil, token)
	resp.Body.Close()

	msg = readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypePostLiked, msg.Type)
	var like likeBody
	require.NoError(t, json.Unmarshal(msg.Payload, &like))
	assert.Equal(t, 1, like.Likes)
}

func TestWebSocket_SubscriptionFilters(t *testing.T) {
	ts := testutil.NewTestServer(t)
	watched := testutil.NewPostBuilder().Build(t, ts.DB.DB)
	other := testutil.NewPostBuilder().Build(t, ts.DB.DB)

	conn := dialFeed(t, ts, "")
	subscribe(t, conn, watched.ID)

	for _, id := range []uuid.UUID{other.ID, watched.ID} {
		resp := do(t, http.MethodPost, ts.APIURL("/posts/"+id.String()+"/comments"),
			map[string]string{"authorName": "Guest", "body": "Hello"}, "")
		resp.Body.Close()
	}

	msg := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeCommentAdded, msg.Type)
	require.NotNil(t, msg.PostID)
	assert.Equal(t, watched.ID, *msg.PostID, "events for other posts are filtered out")
}

func TestWebSocket_TokenIsValidated(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	conn := dialFeed(t, ts, token)
	subscribe(t, conn)

	_, resp, err := ws.DefaultDialer.Dial(ts.WebSocketURL("bogus"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
