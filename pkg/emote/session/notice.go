package session

import (
	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
)

// Level grades a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a user-facing message.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

// noticeFor grades an operation error: known warnings are warnings,
// everything else is an error.
func noticeFor(err error) Notice {
	if emoteerrors.IsWarning(err) {
		return Notice{Level: LevelWarning, Message: err.Error()}
	}
	return Notice{Level: LevelError, Message: err.Error()}
}
