package websocket

import (
	"encoding/json"
	"time"

	"sim-sync/internal/domain"
)

type MessageType string

const (
	TypeSelectGame     MessageType = "select_game"
	TypeMutation       MessageType = "mutation"
	TypeMutationResult MessageType = "mutation_result"
	TypeSnapshot       MessageType = "snapshot"
	TypeGames          MessageType = "games"
	TypeError          MessageType = "error"
	TypePing           MessageType = "ping"
	TypePong           MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SelectGamePayload asks the bridge to make GameID the requested game. It
// is a string because it travels the same way a gameId query value does.
type SelectGamePayload struct {
	GameID string `json:"game_id"`
}

// Mutation operations.
const (
	OpCreateList  = "create_list"
	OpUpdateList  = "update_list"
	OpDestroyList = "destroy_list"
	OpCreateItem  = "create_item"
	OpUpdateItem  = "update_item"
	OpDestroyItem = "destroy_item"
)

// MutationPayload carries one list or item change. ID is chosen by the
// view and echoed back in the result.
type MutationPayload struct {
	ID          string   `json:"id"`
	Op          string   `json:"op"`
	ListID      int      `json:"list_id,omitempty"`
	ItemID      int      `json:"item_id,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	UnitWeight  *float64 `json:"unit_weight,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

type MutationResultPayload struct {
	ID       string   `json:"id"`
	OK       bool     `json:"ok"`
	Kind     string   `json:"kind,omitempty"`
	Status   int      `json:"status,omitempty"`
	Header   string   `json:"header,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

type SnapshotPayload struct {
	Resource string              `json:"resource"`
	GameID   int                 `json:"game_id"`
	Loading  domain.LoadingState `json:"loading"`
	Lists    []domain.List       `json:"lists"`
}

type GamesPayload struct {
	Loading domain.LoadingState `json:"loading"`
	Games   []domain.Game       `json:"games"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
