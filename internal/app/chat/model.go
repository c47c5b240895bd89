package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/app/user"
)

type SenderRole string

const (
	SenderUser  SenderRole = "user"
	SenderAdmin SenderRole = "admin"
)

func (r SenderRole) Valid() bool {
	return r == SenderUser || r == SenderAdmin
}

type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
)

func (k ContentKind) Valid() bool {
	return k == KindText || k == KindImage
}

// Message is one entry of the append-only chat log. UserID is the conversation
// key: the customer the thread belongs to, whoever sent the message.
type Message struct {
	ID        uint64      `json:"id" gorm:"primaryKey"`
	Sender    SenderRole  `json:"sender" gorm:"type:varchar(16);not null"`
	Text      string      `json:"text" gorm:"type:text"`
	Type      ContentKind `json:"type" gorm:"type:varchar(16);not null;default:'text'"`
	Image     string      `json:"image,omitempty" gorm:"type:text"`
	UserID    uint64      `json:"userId" gorm:"not null;index:idx_chat_messages_conversation,priority:1"`
	IsRead    bool        `json:"isRead" gorm:"not null;default:false"`
	CreatedAt time.Time   `json:"createdAt" gorm:"not null;index:idx_chat_messages_conversation,priority:2"`

	Owner *user.User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Message) TableName() string {
	return "chat_messages"
}

func (m *Message) validate() error {
	if m.UserID == 0 {
		return validationError("conversation user is required")
	}
	if !m.Sender.Valid() {
		return validationError("invalid sender %q", m.Sender)
	}
	if !m.Type.Valid() {
		return validationError("invalid message type %q", m.Type)
	}
	if m.Text == "" && m.Image == "" {
		return validationError("message must contain text or an image")
	}
	return nil
}

// PlaceholderKind tells which stand-in identity a snapshot is. Real
// snapshots have the zero kind.
type PlaceholderKind string

const (
	PlaceholderUnknown       PlaceholderKind = "unknown"
	PlaceholderAdministrator PlaceholderKind = "administrator"
)

// UserSnapshot is the best known identity of a conversation owner.
// Placeholder snapshots stand in when the owner could not be resolved.
type UserSnapshot struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Avatar      string          `json:"avatar,omitempty"`
	LastActive  *time.Time      `json:"lastActive"`
	Online      bool            `json:"online"`
	Placeholder PlaceholderKind `json:"placeholder,omitempty"`
}

func (u UserSnapshot) IsPlaceholder() bool {
	return u.Placeholder != ""
}

func snapshotFromProfile(p user.Profile) UserSnapshot {
	return UserSnapshot{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Avatar:     p.Avatar,
		LastActive: p.LastActive,
		Online:     p.Online,
	}
}

// MessageWithUser is a stored message with its conversation owner attached.
type MessageWithUser struct {
	Message
	User *UserSnapshot `json:"user"`
}

type Conversation struct {
	Key         string            `json:"key"`
	User        UserSnapshot      `json:"user"`
	Messages    []MessageWithUser `json:"messages"`
	LastMessage *MessageWithUser  `json:"lastMessage"`
	Online      bool              `json:"online"`
}

// Content is what a sender controls in a new message.
type Content struct {
	Text  string
	Image string
	Type  ContentKind
}

// SendRequest is the POST /api/chat body. Sender is accepted for client
// compatibility and never used for attribution.
type SendRequest struct {
	Text         string      `json:"text"`
	Sender       string      `json:"sender"`
	TargetUserID FlexibleID  `json:"targetUserId"`
	Type         ContentKind `json:"type"`
	Image        string      `json:"image"`
}

func (r SendRequest) Content() Content {
	return Content{Text: r.Text, Image: r.Image, Type: r.Type}
}

// FlexibleID decodes a user id sent either as a JSON number or a numeric
// string. null and "" decode to zero.
type FlexibleID uint64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		raw = s
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", raw)
	}
	*id = FlexibleID(v)
	return nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}
