// Package models defines the chat data model shared by the store, the
// stream decoder, and the CLI.
package models

import "time"

// Session represents one conversation thread with the agent platform.
type Session struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	MessageCount  int       `json:"messageCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
