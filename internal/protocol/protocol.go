package protocol

import "encoding/json"

const Version = "1.0"

// Message types routed over a bot connection.
const (
	TypeHandshake        = "handshake"
	TypeTickInfo         = "tickInfo"
	TypeActionRequest    = "request"
	TypeValidationResult = "validationResult"
	TypeTeardown         = "teardown"
)

// Connection lifecycle tags carried in the handshake.
const (
	LifecycleManaged    = "MANAGED"
	LifecyclePersistent = "PERSISTENT"
)

// ClientMessage is the envelope for every client -> server message.
// Data holds the type-specific payload.
type ClientMessage struct {
	Type     string          `json:"type"`
	Token    string          `json:"token,omitempty"`
	ClientID int64           `json:"clientId"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the envelope for every server -> client message.
type ServerMessage struct {
	Token string          `json:"token,omitempty"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DecodeClientMessage routes raw JSON frames by envelope type.
func DecodeClientMessage(b []byte) (ClientMessage, error) {
	var m ClientMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// NewClientMessage marshals a payload into a client envelope.
func NewClientMessage(clientID int64, token, typ string, payload any) (ClientMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{Type: typ, Token: token, ClientID: clientID, Data: b}, nil
}

// NewServerMessage marshals a payload into a server envelope.
func NewServerMessage(token, typ string, payload any) (ServerMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return ServerMessage{}, err
	}
	return ServerMessage{Token: token, Type: typ, Data: b}, nil
}
