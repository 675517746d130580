package protocol

// ClientHandshake (client -> server): first message on a new connection.
// SessionSecret must equal the server's current session secret or the
// handshake is rejected.
type ClientHandshake struct {
	BotName         string         `json:"botName"`
	Spawnable       bool           `json:"spawnable"`
	Lifecycle       string         `json:"lifecycle,omitempty"`
	CharacterConfig map[string]any `json:"characterConfig,omitempty"`
	ClientToken     string         `json:"clientToken"`
	SessionSecret   string         `json:"sessionSecret"`
}

// ServerHandshake (server -> client): handshake acknowledgement.
type ServerHandshake struct {
	ServerToken     string         `json:"serverToken"`
	CharacterConfig map[string]any `json:"characterConfig,omitempty"`
	Reserved        string         `json:"reserved,omitempty"`
}

// TickInfo (server -> client): one full state snapshot, sent every tick.
// Entity map keys are decimal entity ids.
type TickInfo struct {
	Tick     int64                  `json:"tick"`
	SceneID  string                 `json:"sceneId"`
	Entities map[string]EntityState `json:"entities"`
}

// ActionRequest (client -> server): ask the bound entities to perform an
// action. Input keys are action-specific.
type ActionRequest struct {
	Action   string         `json:"action"`
	Input    map[string]any `json:"input,omitempty"`
	TargetID *int64         `json:"targetId,omitempty"`
}

// ValidationResult (client -> server): outcome of one bot-side assertion.
type ValidationResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}
