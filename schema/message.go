package schema

import "strings"

// ChatMessageType is the speaker of a message.
type ChatMessageType string

const (
	ChatMessageTypeSystem ChatMessageType = "system"
	ChatMessageTypeHuman  ChatMessageType = "human"
	ChatMessageTypeAI     ChatMessageType = "ai"
)

type ContentPart interface {
	String() string
	isPart()
}

type TextContent struct {
	Text string
}

func (tc TextContent) String() string {
	return tc.Text
}

func (TextContent) isPart() {}

// MessageContent is one turn of a conversation.
type MessageContent struct {
	Role  ChatMessageType
	Parts []ContentPart
}

// GetTextContent joins the non-empty text parts with single spaces.
func (mc MessageContent) GetTextContent() string {
	var b strings.Builder
	for _, part := range mc.Parts {
		s := part.String()
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	return b.String()
}

func (mc MessageContent) String() string {
	return mc.GetTextContent()
}

func textMessage(role ChatMessageType, text string) MessageContent {
	return MessageContent{Role: role, Parts: []ContentPart{TextContent{Text: text}}}
}

func NewSystemMessage(text string) MessageContent { return textMessage(ChatMessageTypeSystem, text) }

func NewHumanMessage(text string) MessageContent { return textMessage(ChatMessageTypeHuman, text) }

func NewAIMessage(text string) MessageContent { return textMessage(ChatMessageTypeAI, text) }
