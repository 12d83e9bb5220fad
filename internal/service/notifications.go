package service

import (
	"time"

	"go.uber.org/zap"
)

// MaxNotifications bounds how many undrained notifications a view keeps
const MaxNotifications = 20

// NotificationKind selects how a notification is presented
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is a transient message for the operator
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	At          time.Time        `json:"at"`
}

func notify(kind NotificationKind, title, description string) Notification {
	return Notification{Kind: kind, Title: title, Description: description, At: time.Now().UTC()}
}

// appendNotification returns a new slice with n appended, dropping the oldest past the cap
func appendNotification(list []Notification, n Notification) []Notification {
	out := make([]Notification, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, n)
	if len(out) > MaxNotifications {
		out = out[len(out)-MaxNotifications:]
	}
	return out
}

func logNotification(logger *zap.Logger, n Notification) {
	fields := []zap.Field{
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.Kind == NotifyError {
		logger.Warn("Operator notified of failure", fields...)
		return
	}
	logger.Info("Operator notified", fields...)
}
