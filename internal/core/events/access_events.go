package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePermissionsUpdated = "permissions.updated"
	EventTypeUserLoggedIn       = "session.logged_in"
	EventTypeUserLoggedOut      = "session.logged_out"
)

type PermissionsUpdatedEvent struct {
	BaseEvent
	Position    string   `json:"position"`
	Permissions []string `json:"permissions"`
}

func NewPermissionsUpdatedEvent(position string, permissions []string) *PermissionsUpdatedEvent {
	return &PermissionsUpdatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionsUpdated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"position":    position,
				"permissions": permissions,
			},
		},
		Position:    position,
		Permissions: permissions,
	}
}

type SessionEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func NewUserLoggedInEvent(userID, username string) *SessionEvent {
	return newSessionEvent(EventTypeUserLoggedIn, userID, username)
}

func NewUserLoggedOutEvent(userID, username string) *SessionEvent {
	return newSessionEvent(EventTypeUserLoggedOut, userID, username)
}

func newSessionEvent(eventType, userID, username string) *SessionEvent {
	return &SessionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
		},
		UserID:   userID,
		Username: username,
	}
}
