package geo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSource follows a positions file that a GPS logger appends to, one JSON
// fix per line:
//
//	{"lat": 37.33, "lon": -121.88, "accuracy": 8.5, "time": "2026-10-14T09:30:00Z"}
type FileSource struct {
	Path string

	mu      sync.Mutex
	next    WatchID
	watches map[WatchID]context.CancelFunc
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, watches: make(map[WatchID]context.CancelFunc)}
}

type fixLine struct {
	Lat      *float64  `json:"lat"`
	Lon      *float64  `json:"lon"`
	Accuracy *float64  `json:"accuracy"`
	Time     time.Time `json:"time"`
}

func (s *FileSource) Watch(opts WatchOptions, onPosition func(Position), onError func(error)) (WatchID, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.next++
	id := s.next
	s.watches[id] = cancel
	s.mu.Unlock()

	go s.follow(ctx, opts, onPosition, onError)
	return id, nil
}

func (s *FileSource) ClearWatch(id WatchID) {
	s.mu.Lock()
	cancel, ok := s.watches[id]
	delete(s.watches, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *FileSource) follow(ctx context.Context, opts WatchOptions, onPosition func(Position), onError func(error)) {
	f, err := os.Open(s.Path)
	if err != nil {
		onError(fmt.Errorf("open positions file: %w", err))
		return
	}
	defer f.Close()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		onError(NewPositionError(KindPositionUnavailable, err))
		return
	}
	defer fsw.Close()

	if err := fsw.Add(s.Path); err != nil {
		onError(fmt.Errorf("watch positions file: %w", err))
		return
	}

	reader := bufio.NewReader(f)
	var pending []byte

	// Fixes already in the file are cached; only serve them when allowed.
	if opts.MaximumAge == 0 {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			onError(NewPositionError(KindPositionUnavailable, err))
			return
		}
	} else {
		cutoff := time.Now().Add(-opts.MaximumAge)
		for _, p := range readFixes(reader, &pending) {
			if !p.Timestamp.Before(cutoff) {
				onPosition(p)
			}
		}
	}

	var timeout <-chan time.Time
	var timer *time.Timer
	if opts.Timeout > 0 {
		timer = time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				onError(NewPositionError(KindPositionUnavailable, errors.New("positions file was removed")))
				return
			}
			if !ev.Has(fsnotify.Write) {
				continue
			}
			for _, p := range readFixes(reader, &pending) {
				if ctx.Err() != nil {
					return
				}
				if timer != nil {
					timer.Reset(opts.Timeout)
				}
				onPosition(p)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			onError(NewPositionError(KindUnknown, err))
			return

		case <-timeout:
			onError(NewPositionError(KindTimeout, fmt.Errorf("no position fix within %s", opts.Timeout)))
			return
		}
	}
}

// readFixes drains complete lines from r. A trailing partial line is kept in
// pending until the logger finishes writing it.
func readFixes(r *bufio.Reader, pending *[]byte) []Position {
	var out []Position
	for {
		chunk, err := r.ReadBytes('\n')
		*pending = append(*pending, chunk...)
		if err != nil {
			return out
		}
		line := bytes.TrimSpace(*pending)
		*pending = (*pending)[:0]
		if len(line) == 0 {
			continue
		}
		p, perr := parseFix(line)
		if perr != nil {
			log.Printf("⚠️  Skipping malformed position line: %v", perr)
			continue
		}
		out = append(out, p)
	}
}

func parseFix(line []byte) (Position, error) {
	var fix fixLine
	if err := json.Unmarshal(line, &fix); err != nil {
		return Position{}, err
	}
	if fix.Lat == nil || fix.Lon == nil {
		return Position{}, errors.New("missing lat/lon")
	}
	return Position{
		Latitude:  *fix.Lat,
		Longitude: *fix.Lon,
		Accuracy:  fix.Accuracy,
		Timestamp: fix.Time,
	}, nil
}
