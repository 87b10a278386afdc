package notify

import (
	"log"
	"sync"
)

// Level is the severity of an in-app toast
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is an in-app message
type Toast struct {
	Level   Level
	Title   string
	Message string
}

// Toaster renders in-app messages. It is the channel that always works.
type Toaster interface {
	Toast(t Toast)
}

var levelIcons = map[Level]string{
	LevelInfo:    "ℹ️ ",
	LevelSuccess: "✅",
	LevelWarning: "⚠️ ",
	LevelError:   "❌",
}

// LogToaster writes toasts through the standard logger
type LogToaster struct{}

func (LogToaster) Toast(t Toast) {
	icon, ok := levelIcons[t.Level]
	if !ok {
		icon = levelIcons[LevelInfo]
	}
	if t.Title == "" {
		log.Printf("%s %s", icon, t.Message)
		return
	}
	log.Printf("%s %s: %s", icon, t.Title, t.Message)
}

// Recorder keeps every toast in memory; handy behind a UI or in tests
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Toast(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of everything recorded so far
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}
