package llm

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single role/content entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemText(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
