package domain

import "time"

// Notification is a limit-breach alert generated server-side when usage
// crosses a configured limit. The client surfaces the most recent few only.
type Notification struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}
