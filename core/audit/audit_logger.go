package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scanledger/core/block"
	"scanledger/types/ids"
)

// Event types emitted by the ledger store.
const (
	EventBlockAppended = "block_appended"
	EventBlockDeleted  = "block_deleted"
	EventPatientSearch = "patient_search"
	EventChainVerified = "chain_verified"
)

// Results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultNoMatch = "no_match"
)

// AuditEvent represents a ledger operation worth keeping a trail of.
// EntityID and Metadata never carry plaintext patient names.
type AuditEvent struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"`
	EntityID  string            `json:"entityId"`
	Result    string            `json:"result"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent stamps a fresh ID and timestamp on an event.
func NewEvent(eventType, entityID, result string) AuditEvent {
	return AuditEvent{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		EntityID:  entityID,
		Result:    result,
	}
}

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// ZerologAuditLogger writes events as structured log lines.
type ZerologAuditLogger struct {
	log zerolog.Logger
}

// NewZerologAuditLogger returns an AuditLogger backed by l.
func NewZerologAuditLogger(l zerolog.Logger) AuditLogger {
	return &ZerologAuditLogger{log: l.With().Str("component", "audit").Logger()}
}

func (l *ZerologAuditLogger) LogEvent(event AuditEvent) {
	ev := l.log.Info()
	if event.Result == ResultFailure {
		ev = l.log.Warn()
	}
	ev = ev.Str("event_id", event.ID.String()).
		Time("at", event.Timestamp).
		Str("event", event.EventType).
		Str("entity", event.EntityID).
		Str("result", event.Result)
	if event.Reason != "" {
		ev = ev.Str("reason", event.Reason)
	}
	if len(event.Metadata) > 0 {
		dict := zerolog.Dict()
		for k, v := range event.Metadata {
			dict = dict.Str(k, v)
		}
		ev = ev.Dict("metadata", dict)
	}
	ev.Msg("[AUDIT] " + event.EventType)
}

// FileAuditLogger appends events as JSON lines to a file.
type FileAuditLogger struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// NewFileAuditLogger appends to path, creating it on first write. Write
// failures are reported on l and otherwise ignored.
func NewFileAuditLogger(path string, l zerolog.Logger) *FileAuditLogger {
	return &FileAuditLogger{path: path, log: l}
}

func (l *FileAuditLogger) LogEvent(event AuditEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.appendEvent(event); err != nil {
		l.log.Error().Err(err).Str("path", l.path).Msg("[AUDIT] could not append event")
	}
}

func (l *FileAuditLogger) appendEvent(event AuditEvent) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

// Root computes a Merkle root over the audit log lines, in file order, so a
// copy of the log can be checked against a recorded value. An absent or
// empty log has an empty root.
func (l *FileAuditLogger) Root() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	var hashes []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		hashes = append(hashes, ids.Digest(sc.Bytes()))
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return block.MerkleRoot(hashes), nil
}

// Path returns the audit log location.
func (l *FileAuditLogger) Path() string {
	return l.path
}

// MultiAuditLogger fans an event out to several loggers.
type MultiAuditLogger []AuditLogger

func (m MultiAuditLogger) LogEvent(event AuditEvent) {
	for _, l := range m {
		l.LogEvent(event)
	}
}

// NopAuditLogger discards events.
type NopAuditLogger struct{}

func (NopAuditLogger) LogEvent(AuditEvent) {}
