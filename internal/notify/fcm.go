package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"tripcrew/internal/models"
)

// Sender is the slice of *messaging.Client the FCM channels use
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendDryRun(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPlatform delivers OS notifications to this user's device through
// Firebase Cloud Messaging. Permission is probed with a dry-run send.
type FCMPlatform struct {
	sender Sender
	token  string

	mu         sync.Mutex
	permission models.Permission
}

// NewFCMPlatform creates the platform from a credentials file
func NewFCMPlatform(ctx context.Context, credentialsFile, deviceToken string) (*FCMPlatform, error) {
	client, err := newMessagingClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	return NewFCMPlatformWithSender(client, deviceToken), nil
}

// NewFCMPlatformFromBase64 creates the platform from base64-encoded credentials
// This is useful where a credentials file cannot be shipped alongside the binary
func NewFCMPlatformFromBase64(ctx context.Context, credentialsBase64, deviceToken string) (*FCMPlatform, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	client, err := newMessagingClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, err
	}
	return NewFCMPlatformWithSender(client, deviceToken), nil
}

// NewFCMPlatformWithSender wires an existing sender
func NewFCMPlatformWithSender(sender Sender, deviceToken string) *FCMPlatform {
	perm := models.PermissionDefault
	if deviceToken == "" {
		perm = models.PermissionUnsupported
	}
	return &FCMPlatform{sender: sender, token: deviceToken, permission: perm}
}

func newMessagingClient(ctx context.Context, opt option.ClientOption) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	return client, nil
}

func (p *FCMPlatform) Permission() models.Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

// RequestPermission validates the device token with a dry-run send
func (p *FCMPlatform) RequestPermission(ctx context.Context) (models.Permission, error) {
	return p.dryRun(ctx)
}

// CheckPermission runs the same dry-run send. Nothing is shown on the device.
func (p *FCMPlatform) CheckPermission(ctx context.Context) (models.Permission, error) {
	return p.dryRun(ctx)
}

func (p *FCMPlatform) dryRun(ctx context.Context) (models.Permission, error) {
	if p.token == "" {
		return models.PermissionUnsupported, nil
	}

	_, err := p.sender.SendDryRun(ctx, &messaging.Message{
		Token: p.token,
		Data:  map[string]string{"type": "permission_probe"},
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case err == nil:
		p.permission = models.PermissionGranted
	case messaging.IsUnregistered(err), messaging.IsInvalidArgument(err), messaging.IsSenderIDMismatch(err):
		p.permission = models.PermissionDenied
	default:
		return p.permission, fmt.Errorf("error probing FCM token: %w", err)
	}
	return p.permission, nil
}

// Show sends the alert. TTL models auto-close; the click action brings the trip into focus.
func (p *FCMPlatform) Show(ctx context.Context, a Alert) error {
	ttl := a.AutoClose
	message := &messaging.Message{
		Token: p.token,
		Notification: &messaging.Notification{
			Title: a.Title,
			Body:  a.Body,
		},
		Data: map[string]string{
			"type":         models.MessageTypeRouteDeviation,
			"click_action": a.ClickAction,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
			Notification: &messaging.AndroidNotification{
				ClickAction: a.ClickAction,
				Tag:         models.MessageTypeRouteDeviation,
			},
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"TTL": strconv.Itoa(int(ttl / time.Second))},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := p.sender.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending FCM message: %w", err)
	}
	log.Printf("✅ FCM notification sent successfully: %s", response)
	return nil
}

// Vibrator returns a haptics channel sharing this platform's sender and token
func (p *FCMPlatform) Vibrator() *FCMVibrator {
	return &FCMVibrator{sender: p.sender, token: p.token}
}

// FCMVibrator asks the companion app to vibrate via a data-only message
type FCMVibrator struct {
	sender Sender
	token  string
}

func (v *FCMVibrator) Vibrate(ctx context.Context, pattern []time.Duration) error {
	if v.token == "" {
		return ErrUnsupported
	}
	_, err := v.sender.Send(ctx, &messaging.Message{
		Token: v.token,
		Data: map[string]string{
			"type":    "vibrate",
			"pattern": FormatPattern(pattern),
		},
		Android: &messaging.AndroidConfig{Priority: "high"},
	})
	if err != nil {
		return fmt.Errorf("error sending FCM vibrate message: %w", err)
	}
	return nil
}

// FormatPattern renders a pattern as comma-separated milliseconds
func FormatPattern(pattern []time.Duration) string {
	parts := make([]string, len(pattern))
	for i, d := range pattern {
		parts[i] = strconv.FormatInt(d.Milliseconds(), 10)
	}
	return strings.Join(parts, ",")
}
