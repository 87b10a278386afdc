// Package notify renders route alerts across every channel the device
// offers: in-app toast, OS notification, vibration and an audible beep.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tripcrew/internal/models"
	"tripcrew/internal/schedule"
)

var (
	ErrPermissionDenied = errors.New("notification permission denied")
	ErrUnsupported      = errors.New("notifications are not supported on this device")
)

const (
	autoCloseAfter = 8 * time.Second
	vibrateRepeat  = 2 * time.Second
	clickAction    = "OPEN_TRIP"
)

// VibrationPattern is short, short, long
var VibrationPattern = []time.Duration{
	200 * time.Millisecond, 100 * time.Millisecond,
	200 * time.Millisecond, 100 * time.Millisecond,
	400 * time.Millisecond,
}

// Options wires a Dispatcher. Nil capabilities are treated as unsupported;
// Toaster defaults to LogToaster and Scheduler to real timers.
type Options struct {
	Platform    Platform
	Vibrator    Vibrator
	Beeper      Beeper
	Toaster     Toaster
	Preferences PreferenceStore
	Scheduler   schedule.Scheduler
}

// Dispatcher is the process-wide notification owner. Construct one and
// share it.
type Dispatcher struct {
	platform Platform
	vibrator Vibrator
	beeper   Beeper
	toaster  Toaster
	prefs    PreferenceStore
	sched    schedule.Scheduler

	mu                sync.Mutex
	enabled           bool
	permission        models.Permission
	prompted          bool
	unsupportedNotice bool
}

// NewDispatcher reads the stored preference and the current permission
func NewDispatcher(ctx context.Context, opts Options) *Dispatcher {
	if opts.Toaster == nil {
		opts.Toaster = LogToaster{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.TickerScheduler{}
	}
	d := &Dispatcher{
		platform:   opts.Platform,
		vibrator:   opts.Vibrator,
		beeper:     opts.Beeper,
		toaster:    opts.Toaster,
		prefs:      opts.Preferences,
		sched:      opts.Scheduler,
		permission: models.PermissionUnsupported,
	}
	if d.platform != nil {
		d.permission = d.platform.Permission()
	}

	if d.prefs != nil {
		stored, err := d.prefs.LoadEnabled(ctx)
		if err != nil {
			log.Printf("⚠️  Failed to load notification preference: %v", err)
		}
		if stored && d.permission == models.PermissionDefault {
			d.recheckPermission(ctx)
		}
		d.enabled = stored && d.permission == models.PermissionGranted
	}
	return d
}

// recheckPermission restores an earlier decision silently. It does not count
// as this session's prompt.
func (d *Dispatcher) recheckPermission(ctx context.Context) {
	checker, ok := d.platform.(PermissionChecker)
	if !ok {
		return
	}
	perm, err := checker.CheckPermission(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to re-check notification permission: %v", err)
		return
	}
	d.permission = perm
}

// Preference returns the current setting and permission
func (d *Dispatcher) Preference() models.NotificationPreference {
	d.mu.Lock()
	defer d.mu.Unlock()
	return models.NotificationPreference{Enabled: d.enabled, Permission: d.permission}
}

// Toast shows an in-app message
func (d *Dispatcher) Toast(t Toast) {
	d.toaster.Toast(t)
}

// RequestPermission prompts at most once per process, never after a denial.
// It reports whether OS notifications may now be shown.
func (d *Dispatcher) RequestPermission(ctx context.Context) bool {
	d.mu.Lock()
	switch {
	case d.platform == nil:
		d.permission = models.PermissionUnsupported
		d.mu.Unlock()
		return false
	case d.permission == models.PermissionGranted:
		d.mu.Unlock()
		return true
	case d.permission == models.PermissionDenied, d.permission == models.PermissionUnsupported, d.prompted:
		d.mu.Unlock()
		return false
	}
	d.prompted = true
	d.mu.Unlock()

	perm, err := d.platform.RequestPermission(ctx)
	if err != nil {
		log.Printf("⚠️  Notification permission request failed: %v", err)
		perm = models.PermissionDefault
	}

	d.mu.Lock()
	d.permission = perm
	d.mu.Unlock()
	log.Printf("🔔 Notification permission: %s", perm)
	return perm == models.PermissionGranted
}

// Toggle turns route alerts on or off. Enabling asks for permission when it
// has not been decided yet and refuses when it is denied or unsupported.
func (d *Dispatcher) Toggle(ctx context.Context, enable bool) error {
	if !enable {
		d.setEnabled(ctx, false)
		d.toaster.Toast(Toast{Level: LevelInfo, Title: "Route alerts off", Message: "You will no longer be alerted about route deviations."})
		return nil
	}

	switch d.Preference().Permission {
	case models.PermissionDenied:
		d.toaster.Toast(Toast{
			Level:   LevelWarning,
			Title:   "Notifications blocked",
			Message: "Notifications are blocked for this app. Allow them in your device settings to receive route alerts.",
		})
		return ErrPermissionDenied
	case models.PermissionUnsupported:
		d.noticeUnsupported()
		return ErrUnsupported
	}

	if !d.RequestPermission(ctx) {
		d.setEnabled(ctx, false)
		if d.Preference().Permission == models.PermissionUnsupported {
			d.noticeUnsupported()
			return ErrUnsupported
		}
		d.toaster.Toast(Toast{
			Level:   LevelWarning,
			Title:   "Notifications not allowed",
			Message: "Route alerts need notification permission.",
		})
		return ErrPermissionDenied
	}

	d.setEnabled(ctx, true)
	d.toaster.Toast(Toast{Level: LevelSuccess, Title: "Route alerts on", Message: "You will be alerted if you leave the planned route."})
	return nil
}

// Notify always shows a toast first, then tries the OS notification,
// vibration and beep independently. It returns false when any channel was
// unavailable or failed; it never panics.
func (d *Dispatcher) Notify(ctx context.Context, title, body string) bool {
	d.toaster.Toast(Toast{Level: LevelWarning, Title: title, Message: body})

	d.mu.Lock()
	enabled, perm := d.enabled, d.permission
	d.mu.Unlock()
	if !enabled {
		return false
	}

	ok := true

	if d.platform != nil && perm == models.PermissionGranted {
		err := guard("notification", func() error {
			return d.platform.Show(ctx, Alert{Title: title, Body: body, AutoClose: autoCloseAfter, ClickAction: clickAction})
		})
		if err != nil {
			log.Printf("⚠️  %v", err)
			ok = false
		}
	} else {
		ok = false
	}

	if d.vibrator != nil {
		err := guard("vibration", func() error { return d.vibrator.Vibrate(ctx, VibrationPattern) })
		if err != nil {
			log.Printf("⚠️  %v", err)
			ok = false
		} else {
			d.sched.After(vibrateRepeat, func() {
				if err := guard("vibration", func() error { return d.vibrator.Vibrate(context.Background(), VibrationPattern) }); err != nil {
					log.Printf("⚠️  %v", err)
				}
			})
		}
	} else {
		ok = false
	}

	if d.beeper != nil {
		if err := guard("beep", func() error { return d.beeper.Beep(ctx) }); err != nil {
			log.Printf("⚠️  %v", err)
			ok = false
		}
	} else {
		ok = false
	}

	return ok
}

func (d *Dispatcher) setEnabled(ctx context.Context, enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	d.mu.Unlock()
	if d.prefs == nil {
		return
	}
	if err := d.prefs.SaveEnabled(ctx, enabled); err != nil {
		log.Printf("⚠️  Failed to save notification preference: %v", err)
	}
}

func (d *Dispatcher) noticeUnsupported() {
	d.mu.Lock()
	shown := d.unsupportedNotice
	d.unsupportedNotice = true
	d.mu.Unlock()
	if shown {
		return
	}
	d.toaster.Toast(Toast{
		Level:   LevelWarning,
		Title:   "Notifications unavailable",
		Message: "This device does not support notifications. Route alerts will only appear in the app.",
	})
}

// guard runs one channel, turning a panic into an error
func guard(channel string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s channel panicked: %v", channel, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s channel failed: %w", channel, err)
	}
	return nil
}
