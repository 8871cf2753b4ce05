package iris

// Config is the bridge configuration reported by GET /config.
type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"pollingSpeed"`
	MessageRate       int    `json:"messageRate"`
	WebserverEndpoint string `json:"webserverEndpoint"`
}

// ReplyRequest is the body of POST /reply. Data is text for "text" replies and
// base64 image bytes for "image" replies.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

const (
	ReplyTypeText  = "text"
	ReplyTypeImage = "image"
)

// Message is a chat event pushed over the websocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

type MessageJSON struct {
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SenderName returns the display name of the sender, or "" when absent.
func (m *Message) SenderName() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return *m.Sender
}

type StreamState string

const (
	StateConnecting   StreamState = "CONNECTING"
	StateConnected    StreamState = "CONNECTED"
	StateReconnecting StreamState = "RECONNECTING"
	StateStopped      StreamState = "STOPPED"
	StateFailed       StreamState = "FAILED"
)

func (s StreamState) String() string {
	return string(s)
}
