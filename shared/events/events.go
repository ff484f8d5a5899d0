package events

import "time"

const (
	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"
)

const UserEventsStream = "user.events"

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type UserRegisteredEvent struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

type UserUpdatedEvent struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

type UserDeletedEvent struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}
