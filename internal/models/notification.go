package models

// Permission mirrors the OS notification permission states
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// NotificationPreference is the process-wide route alert setting
type NotificationPreference struct {
	Enabled    bool       `json:"enabled"`
	Permission Permission `json:"permission"`
}
