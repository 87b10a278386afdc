package notify

import (
	"context"
	"time"

	"tripcrew/internal/models"
)

// Alert is an OS-level notification
type Alert struct {
	Title       string
	Body        string
	AutoClose   time.Duration
	ClickAction string // Brings the trip view to the foreground
}

// Platform is the OS notification capability. A nil Platform means unsupported.
type Platform interface {
	Permission() models.Permission
	RequestPermission(ctx context.Context) (models.Permission, error)
	Show(ctx context.Context, a Alert) error
}

// PermissionChecker is implemented by platforms that can re-read a
// permission decision without prompting the user
type PermissionChecker interface {
	CheckPermission(ctx context.Context) (models.Permission, error)
}

// Vibrator drives device haptics. Pattern alternates vibrate/pause durations.
type Vibrator interface {
	Vibrate(ctx context.Context, pattern []time.Duration) error
}

// Beeper plays a short audible cue
type Beeper interface {
	Beep(ctx context.Context) error
}

// PreferenceStore persists the notifications-enabled flag
type PreferenceStore interface {
	LoadEnabled(ctx context.Context) (bool, error)
	SaveEnabled(ctx context.Context, enabled bool) error
}
