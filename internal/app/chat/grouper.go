package chat

import (
	"sort"
	"strconv"
	"strings"
)

const (
	administratorName  = "Administrator"
	administratorEmail = "admin"
	unknownName        = "Unknown User"
	unknownEmail       = "No Email"
)

// PlaceholderFor returns the stand-in snapshot for an unresolved conversation
// owner. adminID is the administrator account resolved at startup.
func PlaceholderFor(userID, adminID uint64) UserSnapshot {
	if adminID != 0 && userID == adminID {
		return UserSnapshot{ID: userID, Name: administratorName, Email: administratorEmail, Placeholder: PlaceholderAdministrator}
	}
	return UserSnapshot{ID: userID, Name: unknownName, Email: unknownEmail, Placeholder: PlaceholderUnknown}
}

// Reconcile merges an incoming snapshot into the current best known one.
// Only the unknown-user placeholder is upgraded; the administrator
// placeholder is kept as is. A placeholder never replaces a real snapshot,
// and between two real snapshots the incoming one wins.
func Reconcile(current UserSnapshot, incoming *UserSnapshot) UserSnapshot {
	if incoming == nil || incoming.IsPlaceholder() {
		return current
	}
	if current.Placeholder == PlaceholderAdministrator {
		return current
	}
	merged := *incoming
	if merged.ID == 0 {
		merged.ID = current.ID
	}
	return merged
}

// GroupConversations partitions messages by conversation owner, one
// conversation per owner, most recent activity first. Messages keep their
// storage order within a conversation. Conversations whose last messages tie
// keep the order in which they were first seen.
func GroupConversations(messages []MessageWithUser, adminID uint64) []Conversation {
	byKey := make(map[string]*Conversation)
	order := make([]string, 0)

	for i := range messages {
		m := messages[i]
		if m.UserID == 0 {
			continue
		}
		key := strconv.FormatUint(m.UserID, 10)

		conv, ok := byKey[key]
		if !ok {
			conv = &Conversation{
				Key:      key,
				User:     PlaceholderFor(m.UserID, adminID),
				Messages: make([]MessageWithUser, 0, 1),
			}
			byKey[key] = conv
			order = append(order, key)
		}

		conv.User = Reconcile(conv.User, m.User)
		conv.Messages = append(conv.Messages, m)

		if conv.LastMessage == nil || m.CreatedAt.After(conv.LastMessage.CreatedAt) {
			latest := m
			conv.LastMessage = &latest
		}
	}

	out := make([]Conversation, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out
}

// FilterConversations keeps conversations whose owner name or email contains
// query, ignoring case. An empty query keeps everything.
func FilterConversations(convs []Conversation, query string) []Conversation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return convs
	}

	out := make([]Conversation, 0, len(convs))
	for _, c := range convs {
		if strings.Contains(strings.ToLower(c.User.Name), query) ||
			strings.Contains(strings.ToLower(c.User.Email), query) {
			out = append(out, c)
		}
	}
	return out
}
