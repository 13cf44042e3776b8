package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// ConversationLogEvent is one logged chat exchange entry.
type ConversationLogEvent struct {
	Timestamp      string         `json:"timestamp"`
	ConversationID string         `json:"conversation_id"`
	Channel        string         `json:"channel"`
	Direction      string         `json:"direction"`
	EventType      string         `json:"event_type"`
	ContentRaw     string         `json:"content_raw"`
	Content        string         `json:"content"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// ConversationLogger records chat traffic as NDJSON for offline review.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

// ConversationLogConfig controls where events are written.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

// fileConversationLogger writes events asynchronously: one NDJSON file per
// conversation plus an optional global file. Events are dropped (with a
// warning) rather than blocking the request path when the queue is full.
type fileConversationLogger struct {
	cfg    ConversationLogConfig
	queue  chan ConversationLogEvent
	done   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewConversationLogger creates a logger per the config. A disabled config
// yields a no-op logger.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled && !cfg.GlobalEnabled {
		return noopConversationLogger{}, nil
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create conversation log dir: %w", err)
		}
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0755); err != nil {
			return nil, fmt.Errorf("create global conversation log dir: %w", err)
		}
	}

	l := &fileConversationLogger{
		cfg:    cfg,
		queue:  make(chan ConversationLogEvent, cfg.QueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Log enqueues an event, populating the cleaned content field.
func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	if event.Content == "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}
	select {
	case l.queue <- event:
	default:
		l.logger.Warn("conversation log queue full, dropping event",
			"conversation_id", event.ConversationID,
			"event_type", event.EventType,
		)
	}
}

// Close drains the queue and stops the writer goroutine.
func (l *fileConversationLogger) Close() error {
	close(l.done)
	l.wg.Wait()
	return nil
}

func (l *fileConversationLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case event := <-l.queue:
			l.write(event)
		case <-l.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case event := <-l.queue:
					l.write(event)
				default:
					return
				}
			}
		}
	}
}

func (l *fileConversationLogger) write(event ConversationLogEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		l.logger.Warn("failed to marshal conversation log event", "error", err)
		return
	}
	line = append(line, '\n')

	if l.cfg.Enabled && event.ConversationID != "" {
		path := filepath.Join(l.cfg.Dir, event.ConversationID+".ndjson")
		l.appendFile(path, line)
	}
	if l.cfg.GlobalEnabled {
		l.appendFile(l.cfg.GlobalPath, line)
	}
}

func (l *fileConversationLogger) appendFile(path string, line []byte) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l.logger.Warn("failed to open conversation log file", "path", path, "error", err)
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.logger.Warn("failed to close conversation log file", "path", path, "error", closeErr)
		}
	}()
	if _, err := f.Write(line); err != nil {
		l.logger.Warn("failed to write conversation log line", "path", path, "error", err)
	}
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// cleanForReadability strips ANSI escapes and control characters so log
// lines stay greppable.
func cleanForReadability(raw string) string {
	cleaned := ansiPattern.ReplaceAllString(raw, "")
	cleaned = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, cleaned)
	return strings.TrimSpace(cleaned)
}

// NoopConversationLogger returns a logger that discards all events.
func NoopConversationLogger() ConversationLogger {
	return noopConversationLogger{}
}
