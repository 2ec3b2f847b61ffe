package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to connected admin dashboards
const (
	EventProofSubmitted    = "proof_submitted"
	EventInstallmentReview = "installment_reviewed"
	EventContractSigned    = "contract_signed"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID  primitive.ObjectID
	IsAdmin bool
	Conn    *websocket.Conn
}

// Hub maintains the set of active clients and broadcasts review-queue
// events to connected admin dashboards.
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, notification Notification) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(notification)
}

// BroadcastToAdmins pushes an event to every connected admin client
func (h *Hub) BroadcastToAdmins(notification Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.IsAdmin {
			client.Conn.WriteJSON(notification)
		}
	}
}

// NotifyContractSigned tells admin dashboards a signed contract awaits approval
func (h *Hub) NotifyContractSigned(contractData interface{}) {
	h.BroadcastToAdmins(Notification{
		Type:    EventContractSigned,
		Message: "A contract was signed and awaits approval",
		Data:    contractData,
	})
}

// NotifyProofSubmitted tells admin dashboards a new proof awaits review
func (h *Hub) NotifyProofSubmitted(paymentData interface{}) {
	h.BroadcastToAdmins(Notification{
		Type:    EventProofSubmitted,
		Message: "New payment proof submitted for review",
		Data:    paymentData,
	})
}

// NotifyInstallmentReviewed tells the investor their installment was reviewed
func (h *Hub) NotifyInstallmentReviewed(userID primitive.ObjectID, reviewData interface{}) error {
	return h.SendToUser(userID, Notification{
		Type:    EventInstallmentReview,
		Message: "Your installment has been reviewed",
		Data:    reviewData,
	})
}
