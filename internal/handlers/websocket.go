package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"plinko-backend/internal/middleware"
	"plinko-backend/internal/models"
)

const (
	MessageRoundCompleted = "ROUND_COMPLETED"
	MessageRoundRevealed  = "ROUND_REVEALED"
	MessagePing           = "PING"
	MessagePong           = "PONG"

	writeWait      = 10 * time.Second
	clientSendSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler feeds round events to connected players. Completed rounds
// go to their owner only; revealed rounds are public and go to everyone.
type WebSocketHandler struct {
	hub *WebSocketHub
}

type WebSocketHub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	send     chan *Message
}

type Message struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"player_id,omitempty"`
	RoundID  string      `json:"round_id,omitempty"`
	Data     interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		PlayerID: playerID,
		Conn:     conn,
		send:     make(chan *Message, clientSendSize),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessagePing:
		client.enqueue(&Message{
			Type: MessagePong,
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	}
}

func (c *Client) enqueue(msg *Message) {
	select {
	case c.send <- msg:
	default:
		log.Printf("Dropping %s for slow client %s", msg.Type, c.PlayerID)
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	defer c.Conn.Close()

	for msg := range c.send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteJSON(msg); err != nil {
			log.Printf("WebSocket write failed for %s: %v", c.PlayerID, err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			if hub.clients[client.PlayerID] == nil {
				hub.clients[client.PlayerID] = make(map[*Client]struct{})
			}
			hub.clients[client.PlayerID][client] = struct{}{}
			log.Printf("Client registered: %s", client.PlayerID)

		case client := <-hub.unregister:
			if conns, ok := hub.clients[client.PlayerID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(hub.clients, client.PlayerID)
					}
					log.Printf("Client unregistered: %s", client.PlayerID)
				}
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.PlayerID != "" {
		for client := range hub.clients[message.PlayerID] {
			client.enqueue(message)
		}
		return
	}
	for _, conns := range hub.clients {
		for client := range conns {
			client.enqueue(message)
		}
	}
}

func (h *WebSocketHandler) publish(msg *Message) {
	select {
	case h.hub.broadcast <- msg:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s for round %s", msg.Type, msg.RoundID)
	}
}

func (h *WebSocketHandler) BroadcastRoundCompleted(round *models.Round) {
	h.publish(&Message{
		Type:     MessageRoundCompleted,
		PlayerID: round.PlayerID,
		RoundID:  round.ID,
		Data: gin.H{
			"round_id":          round.ID,
			"bin_index":         round.BinIndex,
			"payout_multiplier": round.PayoutMultiplier,
			"win_amount":        round.WinAmount,
			"peg_map_hash":      round.PegMapHash,
			"timestamp":         time.Now().Unix(),
		},
	})
}

func (h *WebSocketHandler) BroadcastRoundRevealed(round *models.Round) {
	h.publish(&Message{
		Type:    MessageRoundRevealed,
		RoundID: round.ID,
		Data: gin.H{
			"round_id":     round.ID,
			"player_id":    round.PlayerID,
			"commit_hash":  round.CommitHash,
			"server_seed":  round.ServerSeed,
			"nonce":        round.Nonce,
			"client_seed":  round.ClientSeed,
			"drop_column":  round.DropColumn,
			"bin_index":    round.BinIndex,
			"peg_map_hash": round.PegMapHash,
			"timestamp":    time.Now().Unix(),
		},
	})
}
