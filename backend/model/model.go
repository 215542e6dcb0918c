package model

import (
	"encoding/json"
	"time"
)

// Kind discriminates what a stored interaction record describes.
type Kind string

const (
	KindButton Kind = "button"
	KindMenu   Kind = "menu"
	KindBoard  Kind = "board"
)

// InteractionRecord maps a Discord message id to the semantics of the
// interactive components attached to that message. At most one record
// exists per (MessageID, Kind) pair.
type InteractionRecord struct {
	MessageID string          `json:"message_id"`
	Kind      Kind            `json:"kind"`
	GuildID   string          `json:"guild_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ActivitySetting is a per-user notification preference. A user with
// no stored row reads as enabled.
type ActivitySetting struct {
	UserID               string `json:"user_id"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// FriendCode is one user's registered code for one game in one guild.
type FriendCode struct {
	UserID    string    `json:"user_id"`
	GuildID   string    `json:"guild_id"`
	Game      string    `json:"game"`
	Code      string    `json:"code"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleBoard is a message whose buttons toggle guild roles.
type RoleBoard struct {
	BoardID   string      `json:"board_id"`
	GuildID   string      `json:"guild_id"`
	ChannelID string      `json:"channel_id"`
	MessageID string      `json:"message_id"`
	Title     string      `json:"title"`
	Roles     []BoardRole `json:"roles"`
	CreatedBy string      `json:"created_by"`
}

type BoardRole struct {
	RoleID string `json:"role_id"`
	Label  string `json:"label"`
	// Assignments counts how many times the role was handed out
	// through the board.
	Assignments int `json:"assignments"`
}

// ConversationTurn is one exchange in a user's AI chat history.
type ConversationTurn struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
