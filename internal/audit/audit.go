package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"
)

// Admin actions recorded in the audit trail.
const (
	ActionRoundCreate   = "round.create"
	ActionRoundStart    = "round.start"
	ActionRoundEnd      = "round.end"
	ActionTeamCreate    = "team.create"
	ActionTeamUpdate    = "team.update"
	ActionDecayInterval = "decay.interval"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Metadata encodes value for Entry.Metadata, returning nil on failure.
func Metadata(value any) json.RawMessage {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return data
}

func normalize(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	return entry
}

// LogLogger writes audit entries to a standard logger. Used when no database is configured.
type LogLogger struct {
	logger *log.Logger
}

// NewLogLogger constructs a log-backed audit logger.
func NewLogLogger(logger *log.Logger) *LogLogger {
	return &LogLogger{logger: logger}
}

// Log implements Logger.
func (l *LogLogger) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	if l == nil || l.logger == nil {
		return nil
	}
	entry = normalize(entry)
	l.logger.Printf("audit %s: actor=%s role=%s resource=%s/%s metadata=%s", entry.Action, entry.Actor, entry.Role, entry.ResourceType, entry.ResourceID, string(entry.Metadata))
	return nil
}

// Nop discards entries.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(context.Context, Entry) error { return nil }
