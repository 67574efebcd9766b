package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"werewolf/internal/app"
	"werewolf/internal/domain"
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

	// Inbound command rate per connection
	commandRate  = 10
	commandBurst = 20
)

// Client represents a WebSocket client connection. Its playerID is the
// connection identity; roomID is the room it last joined, if any. After
// a kick the player is no longer seated there.
type Client struct {
	conn     *websocket.Conn
	hub      *app.GameHub
	playerID string
	send     chan []byte
	done     chan struct{}
	limiter  *rate.Limiter
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
	roomID   string
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, hub *app.GameHub, playerID string, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		hub:      hub,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(commandRate, commandBurst),
		logger:   logger.With("playerID", playerID),
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// RoomID returns the room this client has joined
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
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

// Close implements app.ClientConnection interface
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

		if !c.limiter.Allow() {
			c.sendError(ErrCodeRateLimited, "Slow down, too many commands")
			continue
		}
		c.handleMessage(message)
	}
}

// leave detaches the connection from its room; mid-game this forfeits
func (c *Client) leave() {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}
	if err := c.hub.Leave(roomID, c.playerID); err != nil && !domain.IsStale(err) {
		c.logger.Warn("leave failed", "roomId", roomID, "error", err)
	}
	c.setRoom("")
}

// writePump pumps messages from the send channel to the WebSocket connection
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

	switch msg.Type {
	case MsgJoinRoom:
		var p JoinRoomPayload
		if c.decode(msg.Payload, &p) {
			c.reply(c.handleJoinRoom(p))
		}
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.dispatch(msg)
	}
}

// dispatch routes a command to the session of the client's room
func (c *Client) dispatch(msg ClientMessage) {
	var (
		target TargetPayload
		witch  WitchActionPayload
	)
	switch msg.Type {
	case MsgWolfKill, MsgCheckRole, MsgCastVote, MsgKickPlayer, MsgTransferHost:
		if !c.decode(msg.Payload, &target) {
			return
		}
	case MsgWitchAction:
		if !c.decode(msg.Payload, &witch) {
			return
		}
	case MsgStartGame, MsgWolfConfirm, MsgCastSkipVote:
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
		return
	}

	session, err := c.hub.GetSession(c.RoomID())
	if err != nil {
		c.reply(err)
		return
	}

	switch msg.Type {
	case MsgStartGame:
		err = session.StartGame(c.playerID)
	case MsgWolfKill:
		err = session.WolfKill(c.playerID, target.TargetID)
	case MsgWolfConfirm:
		err = session.WolfConfirm(c.playerID)
	case MsgWitchAction:
		err = session.WitchAction(c.playerID, witch.Kind, witch.TargetID)
	case MsgCheckRole:
		err = session.CheckRole(c.playerID, target.TargetID)
	case MsgCastVote:
		err = session.CastVote(c.playerID, target.TargetID)
	case MsgCastSkipVote:
		err = session.CastSkipVote(c.playerID)
	case MsgKickPlayer:
		err = session.KickPlayer(c.playerID, target.TargetID)
	case MsgTransferHost:
		err = session.TransferHost(c.playerID, target.TargetID)
	}
	c.reply(err)
}

// handleJoinRoom seats the connection in a room. A connection is in at
// most one room at a time.
func (c *Client) handleJoinRoom(p JoinRoomPayload) error {
	if current := c.RoomID(); current != "" {
		if session, err := c.hub.GetSession(current); err == nil && session.HasPlayer(c.playerID) {
			return domain.ErrAlreadyJoined
		}
	}

	session, _, err := c.hub.Join(p.RoomID, c.playerID, p.Name, c)
	if err != nil {
		return err
	}
	c.setRoom(session.GetRoomCode())
	return nil
}

func (c *Client) decode(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		c.sendError(ErrCodeInvalidMessage, "Payload is required")
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

// reply reports a rejected command privately; stale references get no answer
func (c *Client) reply(err error) {
	if err == nil {
		return
	}
	code, ok := errorCode(err)
	if !ok {
		c.logger.Debug("stale command ignored", "error", err)
		return
	}
	if code == ErrCodeInternalError {
		c.logger.Error("command failed", "error", err)
	}
	c.sendError(code, err.Error())
}

// sendError sends a private error notice to the client
func (c *Client) sendError(code, text string) {
	c.Send(domain.NewPlayerEvent(domain.EventReceiveMessage, c.RoomID(), c.playerID, &domain.MessagePayload{
		Name:    domain.SystemName,
		Text:    text,
		IsError: true,
		Code:    code,
	}))
}
