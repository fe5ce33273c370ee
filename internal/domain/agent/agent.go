// Package agent defines the Agent domain entity.
package agent

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Status represents the current state of an agent.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// Agent is a registered worker able to perform tasks of one role.
type Agent struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	Status        Status `json:"status"`
	CurrentTaskID string `json:"current_task_id,omitempty"`
}

// Available reports whether the agent can take a task of role.
func (a *Agent) Available(role string) bool {
	return a.Role == role && a.Status == StatusIdle
}

// NewID returns a role-prefixed identifier such as "coder-1f2e3d4c".
func NewID(role string) string {
	return Slug(role) + "-" + uuid.NewString()[:8]
}

// Slug lowercases role and replaces anything but letters and digits with '-'.
func Slug(role string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(role) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "agent"
	}
	return s
}
