package watcher

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"logobanner/src/common"
	"logobanner/src/config"
	"logobanner/src/logging"
)

const (
	debounceDelay = 500 * time.Millisecond
	uploadTimeout = 30 * time.Second
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// payloadExts hold data-URI text, imageExts hold raw image bytes
var (
	payloadExts = map[string]bool{".b64": true, ".txt": true}
	imageExts   = map[string]string{
		".png":  "png",
		".jpg":  "jpeg",
		".jpeg": "jpeg",
		".gif":  "gif",
		".webp": "webp",
		".bmp":  "bmp",
		".tif":  "tiff",
		".tiff": "tiff",
	}
)

// Publisher uploads finished banners
type Publisher interface {
	UploadBytes(ctx context.Context, key string, data []byte) (string, error)
}

// Watcher turns logo files dropped into the inbox into banners
type Watcher struct {
	cfg       *config.Config
	processor *common.Processor
	mover     *Mover
	watcher   *fsnotify.Watcher
	events    chan Event
	publisher Publisher

	mu       sync.Mutex
	debounce map[string]*time.Timer
	stopped  bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// Event reports the outcome for one inbox file
type Event struct {
	Type       EventType
	FilePath   string
	OutputPath string
	URL        string
	Err        error
}

// EventType represents the outcome of processing a file
type EventType int

const (
	EventProcessed EventType = iota
	EventFailed
)

func (t EventType) String() string {
	if t == EventProcessed {
		return "processed"
	}
	return "failed"
}

// NewWatcher creates a new inbox watcher
func NewWatcher(cfg *config.Config, processor *common.Processor) (*Watcher, error) {
	mover, err := NewMover(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mover: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:       cfg,
		processor: processor,
		mover:     mover,
		watcher:   fsWatcher,
		events:    make(chan Event, 100),
		debounce:  make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// SetPublisher enables uploads of finished banners
func (w *Watcher) SetPublisher(p Publisher) {
	w.publisher = p
}

// GetMover returns the mover for file operations
func (w *Watcher) GetMover() *Mover {
	return w.mover
}

// Start begins monitoring the inbox
func (w *Watcher) Start() error {
	for _, folder := range w.mover.GetAllMonitoredFolders() {
		if err := w.watcher.Add(folder); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", folder, err)
		}
		log.Infof("Watching folder: %s", folder)
	}

	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// processEvents debounces fsnotify events per file
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isSupported(event.Name) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("Watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, exists := w.debounce[path]; exists {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if _, err := os.Stat(path); err != nil {
			// Already moved by an earlier run
			return
		}
		w.emit(w.ProcessFile(path))
	})
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// ProcessFile turns one inbox file into a banner and moves the source to
// the processed or failed folder.
func (w *Watcher) ProcessFile(path string) Event {
	ev := Event{FilePath: path}
	entry := log.WithField("file", filepath.Base(path))

	out, url, err := w.render(path)
	status := StatusProcessed
	if err != nil {
		status = StatusFailed
		ev.Type = EventFailed
		ev.Err = err
		entry.WithError(err).Warn("Banner failed")
	} else {
		ev.Type = EventProcessed
		ev.OutputPath = out
		ev.URL = url
		entry.WithField("output", out).Info("Banner written")
	}

	// A failed move is logged but does not change the outcome
	if moved, err := w.mover.MoveFile(path, status); err != nil {
		entry.WithError(err).Warnf("Failed to move source to %s", status)
	} else {
		ev.FilePath = moved
	}

	return ev
}

func (w *Watcher) render(path string) (string, string, error) {
	payload, err := readPayload(path)
	if err != nil {
		return "", "", err
	}

	res, err := w.processor.ChangeBackground(payload, w.cfg.Watch.Color)
	if err != nil {
		return "", "", err
	}

	data, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode banner: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".jpeg"
	out, err := w.mover.WriteOutput(name, data)
	if err != nil {
		return "", "", err
	}

	if !w.cfg.Watch.Upload || w.publisher == nil {
		return out, "", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	url, err := w.publisher.UploadBytes(ctx, name, data)
	if err != nil {
		return out, "", fmt.Errorf("failed to upload banner: %w", err)
	}
	return out, url, nil
}

// readPayload loads an inbox file as a data-URI payload
func readPayload(path string) (common.EncodedPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if payloadExts[ext] {
		return common.EncodedPayload(strings.TrimSpace(string(data))), nil
	}
	if format, ok := imageExts[ext]; ok {
		return common.EncodeDataURI(data, format), nil
	}
	return "", fmt.Errorf("unsupported file type: %s", ext)
}

func isSupported(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	_, isImage := imageExts[ext]
	return isImage || payloadExts[ext]
}

// Events returns the event channel
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher and waits for in-flight files
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	return err
}
