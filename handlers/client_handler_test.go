package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runedeep/server/messages"
	"runedeep/server/models"
	"runedeep/server/persistence"
	"runedeep/server/services"
)

func startServer(t *testing.T) (*websocket.Conn, *Dependencies) {
	t.Helper()
	db, err := persistence.NewJSONStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	deps := &Dependencies{
		Players:   services.NewPlayerService(db),
		Clients:   NewClientManager(),
		Generator: services.NewMapGenerator(services.MapWidth, services.MapHeight, services.TileSize),
		Interval:  10 * time.Millisecond,
		Seed:      func() int64 { return 7 },
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		HandleClientConnection(conn, deps)
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws, deps
}

func send(t *testing.T, ws *websocket.Conn, typ messages.MessageType, payload interface{}) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]interface{}{"type": typ, "payload": payload}))
}

// readUntil skips messages until one of the given type arrives
func readUntil(t *testing.T, ws *websocket.Conn, typ messages.MessageType, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg messages.IncomingMessage
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Type == typ && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
}

func TestClientRequiresLogin(t *testing.T) {
	ws, _ := startServer(t)

	send(t, ws, messages.MessageTypeMove, messages.MoveMessage{Direction: "up"})

	var errMsg messages.ErrorMessage
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeError, nil), &errMsg))
	assert.Equal(t, "NOT_AUTHENTICATED", errMsg.Code)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{oops")))
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeError, nil), &errMsg))
	assert.Equal(t, "BAD_MESSAGE", errMsg.Code)
}

func TestClientSession(t *testing.T) {
	ws, deps := startServer(t)

	send(t, ws, messages.MessageTypeLogin, messages.LoginMessage{Username: "wren"})

	var login messages.LoginSuccessMessage
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeLoginSuccess, nil), &login))
	assert.NotEmpty(t, login.PlayerID)
	assert.NotEmpty(t, login.RunID)
	assert.Equal(t, int64(7), login.Seed)

	var level messages.LevelMessage
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeLevel, nil), &level))
	assert.Equal(t, 1, level.Level)
	require.NotNil(t, level.Map)
	assert.Equal(t, services.MapWidth, level.Map.Width)

	var update messages.UpdateMessage
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeUpdate, nil), &update))
	assert.Equal(t, models.StatusPlaying, update.Status)
	assert.Equal(t, 1, deps.Clients.Count())

	send(t, ws, messages.MessageTypeLogin, messages.LoginMessage{Username: "wren"})
	var errMsg messages.ErrorMessage
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeError, nil), &errMsg))
	assert.Equal(t, "ALREADY_LOGGED_IN", errMsg.Code)

	send(t, ws, messages.MessageTypeMove, messages.MoveMessage{Direction: "sideways"})
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeError, nil), &errMsg))
	assert.Equal(t, "MOVE_FAILED", errMsg.Code)

	send(t, ws, messages.MessageTypeDirector, messages.DirectorMessage{
		Name: "grant_loot",
		Args: map[string]interface{}{"rarity": "rare"},
	})
	readUntil(t, ws, messages.MessageTypeEvents, func(raw json.RawMessage) bool {
		var events messages.EventsMessage
		require.NoError(t, json.Unmarshal(raw, &events))
		for _, e := range events.Events {
			if e.Kind == models.EventDirectorApplied {
				return true
			}
		}
		return false
	})
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeUpdate, nil), &update))
	assert.Equal(t, services.LootTiers["rare"], update.Currency)

	send(t, ws, messages.MessageTypeStatus, messages.StatusMessage{Status: "paused"})
	readUntil(t, ws, messages.MessageTypeUpdate, func(raw json.RawMessage) bool {
		var u messages.UpdateMessage
		require.NoError(t, json.Unmarshal(raw, &u))
		return u.Status == models.StatusPaused
	})

	send(t, ws, messages.MessageTypeLeaderboard, messages.LeaderboardMessage{Limit: 5})
	var runs []models.RunRecord
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeLeaderboard, nil), &runs))
	require.NotEmpty(t, runs)
	assert.Equal(t, "wren", runs[0].Username)
}

type presetCount int

func (n presetCount) Len() int { return int(n) }

func TestClientHearsThemeReloads(t *testing.T) {
	ws, deps := startServer(t)
	send(t, ws, messages.MessageTypeLogin, messages.LoginMessage{Username: "ash"})
	readUntil(t, ws, messages.MessageTypeLoginSuccess, nil)

	reloads := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		deps.Clients.AnnounceReloads(reloads, presetCount(4))
		close(done)
	}()
	reloads <- "themes.yaml"
	close(reloads)

	var note messages.AnnouncementMessage
	require.NoError(t, json.Unmarshal(readUntil(t, ws, messages.MessageTypeAnnouncement, nil), &note))
	assert.Contains(t, note.Message, "4 themes")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("announcer did not stop after the channel closed")
	}
}
