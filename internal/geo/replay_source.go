package geo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ReplaySource plays back a recorded track. Track files look like:
//
//	loop: false
//	points:
//	  - {lat: 37.3329, lon: -121.8866, accuracy: 6, after: 2s}
//	  - {lat: 37.3361, lon: -121.8869, after: 2s}
//	  - {error: timeout, after: 1s}
type ReplaySource struct {
	track replayTrack

	mu      sync.Mutex
	next    WatchID
	watches map[WatchID]context.CancelFunc
}

type replayTrack struct {
	Loop   bool          `yaml:"loop"`
	Points []replayPoint `yaml:"points"`
}

type replayPoint struct {
	Lat      float64       `yaml:"lat"`
	Lon      float64       `yaml:"lon"`
	Accuracy *float64      `yaml:"accuracy"`
	After    time.Duration `yaml:"after"`
	Error    ErrorKind     `yaml:"error"`
}

var errReplayed = errors.New("replayed failure")

// LoadReplay reads a track file from disk
func LoadReplay(path string) (*ReplaySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	return ParseReplay(data)
}

// ParseReplay decodes a YAML track
func ParseReplay(data []byte) (*ReplaySource, error) {
	var track replayTrack
	if err := yaml.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("failed to parse replay track: %w", err)
	}
	if len(track.Points) == 0 {
		return nil, errors.New("replay track has no points")
	}
	return &ReplaySource{track: track, watches: make(map[WatchID]context.CancelFunc)}, nil
}

func (s *ReplaySource) Watch(opts WatchOptions, onPosition func(Position), onError func(error)) (WatchID, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.next++
	id := s.next
	s.watches[id] = cancel
	s.mu.Unlock()

	go s.play(ctx, opts, onPosition, onError)
	return id, nil
}

func (s *ReplaySource) ClearWatch(id WatchID) {
	s.mu.Lock()
	cancel, ok := s.watches[id]
	delete(s.watches, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *ReplaySource) play(ctx context.Context, opts WatchOptions, onPosition func(Position), onError func(error)) {
	for {
		for _, pt := range s.track.Points {
			wait := pt.After
			timedOut := opts.Timeout > 0 && wait > opts.Timeout
			if timedOut {
				wait = opts.Timeout
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			if timedOut {
				onError(NewPositionError(KindTimeout, fmt.Errorf("no position fix within %s", opts.Timeout)))
				return
			}
			if pt.Error != "" {
				onError(NewPositionError(pt.Error, errReplayed))
				return
			}
			onPosition(Position{
				Latitude:  pt.Lat,
				Longitude: pt.Lon,
				Accuracy:  pt.Accuracy,
				Timestamp: time.Now(),
			})
		}
		if !s.track.Loop {
			return
		}
	}
}
