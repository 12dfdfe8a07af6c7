// Package websocket pushes store state to connected views and hands their
// requests to a MessageHandler.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sim-sync/internal/config"
)

var (
	ErrTooManyConnections = errors.New("too many connections")
	ErrClosed             = errors.New("websocket manager stopped")
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

type Manager struct {
	clients       map[string]*Client
	clientsMutex  sync.RWMutex
	Unregister    chan *Client
	HandleMessage chan *ClientMessage
	done          chan struct{}

	maxConns       int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
	messageHandler MessageHandler
	logger         zerolog.Logger
}

func NewManager(cfg config.WebSocketConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConns:       cfg.MaxConnPerView,
		writeWait:      cfg.WriteWait,
		pongWait:       cfg.PongWait,
		pingPeriod:     cfg.PingPeriod,
		maxMessageSize: cfg.MaxMessageSize,
		logger:         logger.With().Str("component", "websocket").Logger(),
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run serves unregistrations and incoming messages until ctx is done,
// then disconnects every client.
func (m *Manager) Run(ctx context.Context) {
	defer func() {
		close(m.done)
		m.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

// Register adds client. Once it returns nil, Send and Broadcast reach the
// client.
func (m *Manager) Register(client *Client) error {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	if m.maxConns > 0 && len(m.clients) >= m.maxConns {
		m.logger.Warn().Str("client_id", client.ID).Int("max", m.maxConns).Msg("max connections reached")
		return ErrTooManyConnections
	}

	m.clients[client.ID] = client
	m.logger.Info().Str("client_id", client.ID).Msg("client registered")
	return nil
}

// unregister is used by the client pumps. It gives up once Run has
// returned.
func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		close(client.Send)
		m.logger.Info().Str("client_id", client.ID).Msg("client unregistered")
	}
}

func (m *Manager) closeAll() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		delete(m.clients, id)
		close(client.Send)
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Warn().Err(err).Str("client_id", clientMsg.Client.ID).Msg("error unmarshaling message")
		m.Send(clientMsg.Client, TypeError, &ErrorPayload{Error: "invalid message"})
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
			m.logger.Warn().Err(err).Str("type", string(msg.Type)).Msg("error handling message")
			m.Send(clientMsg.Client, TypeError, &ErrorPayload{Error: err.Error()})
		}
	}
}

// Broadcast queues msg for every client. Clients whose buffer is full are
// disconnected.
func (m *Manager) Broadcast(msgType MessageType, payload interface{}) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var slow []*Client
	m.clientsMutex.RLock()
	for _, client := range m.clients {
		select {
		case client.Send <- messageBytes:
		default:
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		m.logger.Warn().Str("client_id", client.ID).Msg("send buffer full, closing connection")
		m.unregisterClient(client)
	}
	return nil
}

// Send queues a message for one client. A client that is no longer
// registered is skipped.
func (m *Manager) Send(client *Client, msgType MessageType, payload interface{}) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if _, ok := m.clients[client.ID]; !ok {
		return nil
	}
	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn().Str("client_id", client.ID).Msg("send buffer full")
	}
	return nil
}

func (m *Manager) Connections() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}
