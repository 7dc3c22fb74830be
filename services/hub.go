package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub owns every websocket connection and implements Emitter for the engine.
// Clients hold only their socket id and the room code they are subscribed to;
// room state itself always lives behind the registry.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	game       *GameService
}

type Client struct {
	hub      *Hub
	socketID string
	conn     *websocket.Conn
	send     chan []byte
	roomCode string // guarded by hub.mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Bind wires the game service in after construction; hub and service point at
// each other, so one of the two links has to be late.
func (h *Hub) Bind(game *GameService) {
	h.game = game
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %s connected - total clients: %d", client.socketID, h.clientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Printf("Client %s disconnected - total clients: %d", client.socketID, h.clientCount())

			if h.game != nil {
				h.game.HandleDisconnect(client.socketID)
			}
		}
	}
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func encodeMessage(event string, payload any) ([]byte, bool) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("Error marshaling %s payload: %v", event, err)
			return nil, false
		}
		raw = data
	}
	data, err := json.Marshal(Message{Type: event, Payload: raw})
	if err != nil {
		log.Printf("Error marshaling %s envelope: %v", event, err)
		return nil, false
	}
	return data, true
}

// ToSocket sends one event to one connection.
func (h *Hub) ToSocket(socketID, event string, payload any) {
	data, ok := encodeMessage(event, payload)
	if !ok {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.socketID != socketID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
		return
	}
}

// ToRoom sends one event to every connection subscribed to a room code.
// game-ended also tears the subscription down, so a later room reusing the
// code can never leak into old clients.
func (h *Hub) ToRoom(code, event string, payload any) {
	data, ok := encodeMessage(event, payload)
	if !ok {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.roomCode != code {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
			continue
		}
		if event == EventGameEnded {
			client.roomCode = ""
		}
	}
}

// Subscribe binds a socket to a room code so room broadcasts reach it.
func (h *Hub) Subscribe(socketID, code string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.socketID == socketID {
			client.roomCode = code
			return
		}
	}
}

// Unsubscribe detaches a socket from whatever room it was in.
func (h *Hub) Unsubscribe(socketID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.socketID == socketID {
			client.roomCode = ""
			return
		}
	}
}

// RegisterClient adopts an upgraded connection and starts its pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:      h,
		socketID: uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Error unmarshaling message from %s: %v", c.socketID, err)
			continue
		}

		c.hub.dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// dispatch decodes an inbound event into its typed payload and hands it to
// the engine. Unknown tags and malformed payloads never get further than here.
func (h *Hub) dispatch(c *Client, msg Message) {
	game := h.game
	if game == nil {
		return
	}

	fail := func(err error) {
		log.Printf("Bad %s payload from %s: %v", msg.Type, c.socketID, err)
		game.emitError(c.socketID, "malformed "+msg.Type+" payload")
	}

	switch msg.Type {
	case EventCreateGame:
		var p CreateGamePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.CreateGame(c.socketID, p)

	case EventJoinGame:
		var p JoinGamePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.JoinGame(c.socketID, p)

	case EventRejoinGame:
		var p RejoinGamePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.RejoinGame(c.socketID, p)

	case EventStartGame:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.StartGame(c.socketID, p.Code)

	case EventUseStealCard:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.UseStealCard(c.socketID, p.Code)

	case EventSubmitAnswer:
		var p SubmitAnswerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.SubmitAnswer(c.socketID, p)

	case EventTimeUp:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.TimeUp(c.socketID, p.Code)

	case EventNextQuestion:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.NextQuestion(c.socketID, p.Code)

	case EventOverrideAnswer:
		var p OverrideAnswerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.OverrideAnswer(c.socketID, p)

	case EventRemoveQuestion:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.RemoveQuestion(c.socketID, p.Code)

	case EventRemovePlayer:
		var p PlayerActionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.RemovePlayer(c.socketID, p)

	case EventLeaveGame:
		var p PlayerActionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.LeaveGame(c.socketID, p)

	case EventRestartGame:
		var p RestartGamePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.RestartGame(c.socketID, p)

	case EventKillGame:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.KillGame(c.socketID, p.Code)

	case EventCheckRoom:
		var p CodePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.CheckRoom(c.socketID, p.Code)

	case EventUpdateBgm:
		var p UpdateBgmPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			fail(err)
			return
		}
		game.UpdateBgm(c.socketID, p)

	case EventActiveGames:
		game.ActiveGames(c.socketID)

	case "ping":
		h.ToSocket(c.socketID, "pong", nil)

	default:
		log.Printf("Unknown message type %q from %s", msg.Type, c.socketID)
	}
}
