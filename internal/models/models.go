// Package models defines the confession domain types shared between the
// stores and the HTTP layer.
package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"veiller/internal/moderation"
)

// MaxConfessionLength caps the confession body in runes.
const MaxConfessionLength = 2000

// Confession is one anonymous post. The author is never serialized; only the
// moderation subsystem reads it (self-report guard) and the store keeps it
// for ownership checks.
type Confession struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"-"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	ModerationStatus      moderation.ModerationStatus `json:"moderation_status"`
	ModerationRule        moderation.RuleID           `json:"moderation_rule,omitempty"`
	ModerationTriggeredAt *time.Time                  `json:"moderation_triggered_at,omitempty"`
	TotalReportsAtTrigger int                         `json:"total_reports_at_trigger,omitempty"`
}

// CreateConfessionRequest is the payload for posting a confession.
type CreateConfessionRequest struct {
	Content string `json:"content"`
	Mood    string `json:"mood,omitempty"`
}

// Validate checks the request and normalizes whitespace.
func (r *CreateConfessionRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return errors.New("content is required")
	}
	if utf8.RuneCountInString(r.Content) > MaxConfessionLength {
		return errors.New("content is too long")
	}
	return nil
}
