package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	// Time allowed to draw the questions of a new game
	startTimeout = 10 * time.Second
)

// Client represents a WebSocket client connection. A client is bound
// to at most one team in one room at a time.
type Client struct {
	id          string
	conn        *websocket.Conn
	registry    *app.Registry
	broadcaster *app.ConnectionBroadcaster
	send        chan []byte
	done        chan struct{}
	logger      *slog.Logger
	mu          sync.Mutex
	closed      bool

	// binding, only touched by the read pump
	session  *app.RoomSession
	roomCode string
	teamName string
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, registry *app.Registry, broadcaster *app.ConnectionBroadcaster, logger *slog.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:          id,
		conn:        conn,
		registry:    registry,
		broadcaster: broadcaster,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		logger:      logger.With("connID", id),
	}
}

// ID implements app.ClientConnection interface
func (c *Client) ID() string {
	return c.id
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		// A dropped connection removes its team
		c.leave()
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
// Every message goes out in its own frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	var err error
	switch msg.Type {
	case MsgCreateRoom:
		err = c.handleCreateRoom(msg.Payload)
	case MsgJoinRoom:
		err = c.handleJoinRoom(msg.Payload)
	case MsgToggleReady:
		err = c.handleToggleReady(msg.Payload)
	case MsgStartGame:
		err = c.handleStartGame(msg.Payload)
	case MsgLeaveRoom:
		err = c.handleLeaveRoom(msg.Payload)
	case MsgChatMessage:
		err = c.handleChatMessage(msg.Payload)
	case MsgSubmitAnswer:
		err = c.handleSubmitAnswer(msg.Payload)
	case MsgTimeUp:
		err = c.handleTimeUp(msg.Payload)
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
		return
	}

	if err != nil {
		c.reportError(msg.Type, err)
	}
}

// decode unmarshals a message payload
func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return domain.ErrInvalidInput
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// handleCreateRoom handles a createRoom message
func (c *Client) handleCreateRoom(raw json.RawMessage) error {
	var p CreateRoomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	if err := c.ensureUnbound(); err != nil {
		return err
	}

	session, teams, err := c.registry.CreateRoom(p.TeamName)
	if err != nil {
		return err
	}

	c.bind(session, teams[0].Name)
	return session.Welcome(c.teamName)
}

// handleJoinRoom handles a joinRoom message
func (c *Client) handleJoinRoom(raw json.RawMessage) error {
	var p JoinRoomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	if err := c.ensureUnbound(); err != nil {
		return err
	}

	name, err := domain.NormalizeTeamName(p.TeamName)
	if err != nil {
		return err
	}

	session, _, err := c.registry.JoinRoom(p.RoomCode, name)
	if err != nil {
		return err
	}

	c.bind(session, name)
	return session.Welcome(name)
}

// handleToggleReady handles a toggleReady message
func (c *Client) handleToggleReady(raw json.RawMessage) error {
	var p TeamPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	session, err := c.boundSession(p.RoomCode, p.TeamName)
	if err != nil {
		return err
	}

	session.ToggleReady(c.teamName)
	return nil
}

// handleStartGame handles a startGame message
func (c *Client) handleStartGame(raw json.RawMessage) error {
	var p RoomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	session, err := c.boundSession(p.RoomCode, "")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	return session.Start(ctx, c.teamName)
}

// handleLeaveRoom handles a leaveRoom message
func (c *Client) handleLeaveRoom(raw json.RawMessage) error {
	var p TeamPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	if _, err := c.boundSession(p.RoomCode, p.TeamName); err != nil {
		return err
	}

	c.leave()
	return nil
}

// handleChatMessage handles a chatMessage message
func (c *Client) handleChatMessage(raw json.RawMessage) error {
	var p ChatPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	session, err := c.boundSession(p.RoomCode, p.TeamName)
	if err != nil {
		return err
	}

	return session.PostMessage(c.teamName, p.Message)
}

// handleSubmitAnswer handles a submitAnswer message
func (c *Client) handleSubmitAnswer(raw json.RawMessage) error {
	var p AnswerPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	session, err := c.boundSession(p.RoomCode, p.TeamName)
	if err != nil {
		return err
	}

	err = session.SubmitAnswer(c.teamName, p.Answer)
	if errors.Is(err, domain.ErrDuplicateAnswer) {
		return nil
	}
	return err
}

// handleTimeUp handles a timeUp message
func (c *Client) handleTimeUp(raw json.RawMessage) error {
	var p RoomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	session, err := c.boundSession(p.RoomCode, "")
	if err != nil {
		return err
	}

	session.TimeUp()
	return nil
}

// ensureUnbound fails if the connection still belongs to a live room.
// A binding to a room that was torn down is dropped.
func (c *Client) ensureUnbound() error {
	if c.session == nil {
		return nil
	}

	if c.registry.IsCurrent(c.session) {
		return ErrAlreadyInRoom
	}

	c.unbind()
	return nil
}

// boundSession checks the payload identity against the binding.
// An empty teamName skips the team check. The binding holds the session
// itself, so a later room that reuses the code is never reached.
func (c *Client) boundSession(roomCode, teamName string) (*app.RoomSession, error) {
	if c.session == nil {
		return nil, ErrNotInRoom
	}

	if roomCode != c.roomCode || (teamName != "" && teamName != c.teamName) {
		return nil, ErrIdentityMismatch
	}

	if !c.registry.IsCurrent(c.session) {
		c.unbind()
		return nil, domain.ErrRoomNotFound
	}

	return c.session, nil
}

func (c *Client) bind(session *app.RoomSession, teamName string) {
	c.session = session
	c.roomCode = session.GetRoomCode()
	c.teamName = teamName
	c.broadcaster.Subscribe(c.roomCode, teamName, c)

	c.logger.Info("client bound", "roomCode", c.roomCode, "team", teamName)
}

// unbind drops the binding without touching the room
func (c *Client) unbind() {
	c.broadcaster.Unsubscribe(c.roomCode, c.teamName, c)
	c.session, c.roomCode, c.teamName = nil, "", ""
}

// leave removes the bound team from its room and drops the binding
func (c *Client) leave() {
	if c.session == nil {
		return
	}

	session, roomCode, teamName := c.session, c.roomCode, c.teamName
	c.unbind()

	err := c.registry.LeaveRoom(session, teamName)
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) && !errors.Is(err, domain.ErrTeamNotFound) {
		c.logger.Warn("failed to remove team", "roomCode", roomCode, "team", teamName, "error", err)
	}
}

// reportError logs a failed request and tells the client
func (c *Client) reportError(msgType MessageType, err error) {
	code := errorCode(err)
	if code == ErrCodeInternalError {
		c.logger.Error("request failed", "type", msgType, "error", err)
	} else {
		c.logger.Debug("request rejected", "type", msgType, "code", code, "error", err)
	}
	c.sendError(code, err.Error())
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	payload := &domain.ErrorPayload{
		Code:    code,
		Message: message,
	}

	msg := NewServerMessage(MsgError, c.roomCode, payload)
	c.Send(msg)
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	msg := NewServerMessage(MsgPong, c.roomCode, nil)
	c.Send(msg)
}
