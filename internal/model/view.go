package model

import (
	"fmt"
	"time"
)

// Mode represents the display state of a view session
type Mode int

const (
	ModeUninitialized Mode = iota
	ModeError
	ModeShowing
)

// String returns the lowercase name of the mode
func (m Mode) String() string {
	switch m {
	case ModeError:
		return "error"
	case ModeShowing:
		return "showing"
	default:
		return "uninitialized"
	}
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "uninitialized":
		*m = ModeUninitialized
	case "error":
		*m = ModeError
	case "showing":
		*m = ModeShowing
	default:
		return fmt.Errorf("unknown view mode %q", text)
	}
	return nil
}

// View is a point-in-time copy of what a session displays
type View struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Scope      *Scope    `json:"scope,omitempty"`
	Mode       Mode      `json:"mode"`
	Error      string    `json:"error,omitempty"`      // set when Mode is error
	Diagnostic string    `json:"diagnostic,omitempty"` // last non-fatal reconcile problem
	Rows       []Row     `json:"rows"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ViewSummary is the short form used when listing sessions
type ViewSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Scope *Scope `json:"scope,omitempty"`
	Mode  Mode   `json:"mode"`
	Rows  int    `json:"rows"`
}

// ServiceStatus represents the current status of the partview service
type ServiceStatus struct {
	Source          string    `json:"source"`           // slurm | nomad
	Sessions        int       `json:"sessions"`         // number of open views
	RefreshInterval int64     `json:"refresh_interval"` // in milliseconds
	LastUpdate      time.Time `json:"last_update"`      // snapshot time of the main view
}
