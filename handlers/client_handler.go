package handlers

import (
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"runedeep/server/messages"
	"runedeep/server/models"
	"runedeep/server/network"
	"runedeep/server/services"
)

// Dependencies are the shared services every client handler needs
type Dependencies struct {
	Players   *services.PlayerService
	Clients   *ClientManager
	Generator *services.MapGenerator
	Presets   services.ThemeLookup
	Interval  time.Duration
	Seed      func() int64
}

// ClientHandler manages a single client connection
type ClientHandler struct {
	conn    *network.Connection
	deps    *Dependencies
	profile *models.Profile
	session *Session
}

// HandleClientConnection serves a websocket client until it disconnects
func HandleClientConnection(wsConn *websocket.Conn, deps *Dependencies) {
	log.Printf("New connection from %s", wsConn.RemoteAddr().String())

	conn := network.NewConnection(wsConn)
	handler := &ClientHandler{
		conn: conn,
		deps: deps,
	}

	go conn.WritePump()

	// Handle the read pump in the current goroutine
	conn.ReadPump(handler)

	handler.Close()
	if handler.profile != nil {
		deps.Clients.RemoveClient(handler.profile.ID, handler)
		log.Printf("Player %s disconnected", handler.profile.Username)
	}
}

// Close stops the client's session and outgoing queue
func (h *ClientHandler) Close() {
	if h.session != nil {
		h.session.Stop()
	}
	h.conn.Close()
}

// HandleMessage handles incoming messages from the client
func (h *ClientHandler) HandleMessage(conn *network.Connection, message []byte) {
	var msg messages.IncomingMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		h.sendError("BAD_MESSAGE", "Message is not valid JSON")
		return
	}

	if msg.Type == messages.MessageTypeLogin {
		h.handleLogin(msg.Payload)
		return
	}
	if h.session == nil {
		h.sendError("NOT_AUTHENTICATED", "Log in first")
		return
	}

	switch msg.Type {
	case messages.MessageTypeMove:
		h.handleMove(msg.Payload)
	case messages.MessageTypeAttack:
		h.session.Enqueue(services.Command{Type: services.CommandAttack})
	case messages.MessageTypeInteract:
		h.session.Enqueue(services.Command{Type: services.CommandInteract})
	case messages.MessageTypeReset:
		h.session.Enqueue(services.Command{Type: services.CommandReset})
	case messages.MessageTypeStatus:
		h.handleStatus(msg.Payload)
	case messages.MessageTypeDirector:
		h.handleDirector(msg.Payload)
	case messages.MessageTypeLeaderboard:
		h.handleLeaderboard(msg.Payload)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		h.sendError("UNKNOWN_MESSAGE_TYPE", "Unknown message type received")
	}
}

// handleLogin creates the player's profile and starts a run
func (h *ClientHandler) handleLogin(payload json.RawMessage) {
	if h.session != nil {
		h.sendError("ALREADY_LOGGED_IN", "Session already running")
		return
	}

	var loginMsg messages.LoginMessage
	if err := json.Unmarshal(payload, &loginMsg); err != nil {
		h.sendError("LOGIN_FAILED", "Malformed login payload")
		return
	}

	profile, err := h.deps.Players.GetOrCreatePlayer(loginMsg.Username)
	if err != nil {
		log.Printf("Error getting/creating player: %v", err)
		h.sendError("LOGIN_FAILED", err.Error())
		return
	}

	seed := h.deps.Seed()
	world := services.NewWorldService(rand.New(rand.NewSource(seed)), h.deps.Generator, h.deps.Presets)
	session, err := NewSession(world, h.deps.Players, h.deps.Clients, h.conn, profile, seed, h.deps.Interval)
	if err != nil {
		log.Printf("Error starting session: %v", err)
		h.sendError("LOGIN_FAILED", "Failed to start run")
		return
	}

	h.profile = profile
	h.session = session
	if previous := h.deps.Clients.AddClient(profile.ID, h); previous != nil {
		previous.Close()
	}

	if err := h.conn.SendMessage(messages.BaseMessage{
		Type: messages.MessageTypeLoginSuccess,
		Payload: messages.LoginSuccessMessage{
			PlayerID: profile.ID,
			RunID:    session.RunID(),
			Seed:     seed,
			Message:  "Login successful",
		},
	}); err != nil {
		log.Printf("Error sending login success: %v", err)
	}

	go session.Run()
}

// handleMove queues a movement intent
func (h *ClientHandler) handleMove(payload json.RawMessage) {
	var moveMsg messages.MoveMessage
	if err := json.Unmarshal(payload, &moveMsg); err != nil {
		h.sendError("MOVE_FAILED", "Malformed move payload")
		return
	}

	cmd, err := services.MoveCommand(moveMsg.Direction)
	if err != nil {
		h.sendError("MOVE_FAILED", err.Error())
		return
	}
	h.session.Enqueue(cmd)
}

// handleStatus queues a pause/resume request
func (h *ClientHandler) handleStatus(payload json.RawMessage) {
	var statusMsg messages.StatusMessage
	if err := json.Unmarshal(payload, &statusMsg); err != nil || !models.RunStatus(statusMsg.Status).Valid() {
		h.sendError("STATUS_FAILED", "Unknown status")
		return
	}
	h.session.Enqueue(services.Command{Type: services.CommandSetStatus, Status: models.RunStatus(statusMsg.Status)})
}

// handleDirector queues a narrative tool call. Arguments of any shape are
// accepted; validation happens when the command is applied.
func (h *ClientHandler) handleDirector(payload json.RawMessage) {
	var call messages.DirectorMessage
	if err := json.Unmarshal(payload, &call); err != nil {
		// an unreadable args object still reaches the director as an empty bag
		var named struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(payload, &named)
		call = messages.DirectorMessage{Name: named.Name}
	}
	h.session.Enqueue(services.DirectorCommand(services.ToolCall{Name: call.Name, Args: call.Args}))
}

// handleLeaderboard replies with the best runs
func (h *ClientHandler) handleLeaderboard(payload json.RawMessage) {
	var req messages.LeaderboardMessage
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &req)
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 10
	}

	runs, err := h.deps.Players.Leaderboard(req.Limit)
	if err != nil {
		log.Printf("Error loading leaderboard: %v", err)
		h.sendError("LEADERBOARD_FAILED", "Leaderboard unavailable")
		return
	}
	if err := h.conn.SendMessage(messages.BaseMessage{Type: messages.MessageTypeLeaderboard, Payload: runs}); err != nil {
		log.Printf("Error sending leaderboard: %v", err)
	}
}

func (h *ClientHandler) sendError(code, message string) {
	if err := h.conn.SendMessage(messages.BaseMessage{
		Type: messages.MessageTypeError,
		Payload: messages.ErrorMessage{
			Code:    code,
			Message: message,
		},
	}); err != nil {
		log.Printf("Error sending error message: %v", err)
	}
}
