package geo

import "time"

// WatchOptions mirrors the continuous-watch options of a platform positioning API
type WatchOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration // Per fix; zero disables
	MaximumAge         time.Duration // Zero means never serve cached fixes
}

// DefaultWatchOptions: high accuracy, 10 second timeout, no cached fixes
var DefaultWatchOptions = WatchOptions{
	EnableHighAccuracy: true,
	Timeout:            10 * time.Second,
	MaximumAge:         0,
}

// Position is a raw fix from a Source
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	Timestamp time.Time
}

// WatchID identifies a registration with a Source
type WatchID uint64

// Source is a device positioning subsystem. Callbacks are invoked from the
// source's own goroutine, never from inside Watch.
type Source interface {
	Watch(opts WatchOptions, onPosition func(Position), onError func(error)) (WatchID, error)
	ClearWatch(id WatchID)
}
