package gateway

// Event is one item of the gateway stream. The set of implementations is
// closed; consumers switch on the concrete type and ignore the rest.
type Event interface {
	event()
}

// MessageCreate is a new chat message.
type MessageCreate struct {
	ServerID  string
	ChannelID string
	MessageID string
	AuthorID  string
	Content   string
}

// ReactionAdd is an emoji added to a message.
type ReactionAdd struct {
	ServerID  string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
}

// VoiceStateUpdate reports a user joining, moving within or leaving voice.
// ServerID is empty for direct calls.
type VoiceStateUpdate struct {
	ServerID string
	State    VoiceState
}

// ServerCreate delivers a server becoming available, with its full voice
// state.
type ServerCreate struct {
	Server Server
}

// ServerDelete reports a server becoming unavailable or the bot leaving it.
type ServerDelete struct {
	ServerID string
}

// Unknown carries any event kind the bot does not track.
type Unknown struct {
	Type string
}

func (MessageCreate) event()    {}
func (ReactionAdd) event()      {}
func (VoiceStateUpdate) event() {}
func (ServerCreate) event()     {}
func (ServerDelete) event()     {}
func (Unknown) event()          {}
