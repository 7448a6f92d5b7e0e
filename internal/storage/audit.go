// audit.go - Diagnostic audit log of completed analyses

package storage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/townsquare/complaint_analyzer/internal/domain"
)

// AuditRecord is one completed analysis. It carries the classification outcome and
// how it was reached, never the complaint text or image.
type AuditRecord struct {
	ID          string         `bson:"_id" json:"id"`
	RequestID   string         `bson:"request_id" json:"request_id"`
	Category    string         `bson:"category" json:"category"`
	Severity    string         `bson:"severity" json:"severity"`
	Priority    string         `bson:"priority" json:"priority"`
	Source      string         `bson:"source" json:"source"`
	Confidence  float64        `bson:"confidence" json:"confidence"`
	Provider    string         `bson:"provider" json:"provider"`
	Path        string         `bson:"path" json:"path"`
	PrimaryErr  string         `bson:"primary_error,omitempty" json:"primary_error,omitempty"`
	DurationMs  int64          `bson:"duration_ms" json:"duration_ms"`
	TokenUsage  map[string]int `bson:"token_usage,omitempty" json:"token_usage,omitempty"`
	CompletedAt time.Time      `bson:"completed_at" json:"completed_at"`
}

// NewAuditRecord builds a record from a finished analysis.
// path is the list of visited states, primaryErr may be nil.
func NewAuditRecord(requestID, provider string, result domain.AnalysisResult, path []string, primaryErr error, duration time.Duration) AuditRecord {
	rec := AuditRecord{
		ID:          uuid.New().String(),
		RequestID:   requestID,
		Category:    string(result.Category),
		Severity:    string(result.Severity),
		Priority:    string(result.Priority),
		Source:      string(result.Source),
		Confidence:  result.Confidence.Score,
		Provider:    provider,
		Path:        strings.Join(path, ">"),
		DurationMs:  duration.Milliseconds(),
		CompletedAt: time.Now().UTC(),
	}
	if primaryErr != nil {
		rec.PrimaryErr = primaryErr.Error()
	}
	return rec
}

// AuditStore persists audit records.
type AuditStore interface {
	Record(ctx context.Context, rec AuditRecord) error
	// Prune deletes records completed before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// NopAuditStore discards everything. Used when AUDIT_STORE=none.
type NopAuditStore struct{}

func (NopAuditStore) Record(context.Context, AuditRecord) error       { return nil }
func (NopAuditStore) Prune(context.Context, time.Time) (int64, error) { return 0, nil }
func (NopAuditStore) Close() error                                     { return nil }

// AuditConfig selects and configures an audit backend.
type AuditConfig struct {
	Backend    string // none, mongo, sqlite
	MongoURI   string
	MongoDB    string
	SQLitePath string
}

// OpenAuditStore opens the configured backend.
func OpenAuditStore(ctx context.Context, cfg AuditConfig) (AuditStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		log.Println("🗄️  Audit log disabled")
		return NopAuditStore{}, nil
	case "mongo", "mongodb":
		return NewMongoAuditStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case "sqlite":
		return NewSQLiteAuditStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported AUDIT_STORE: %s (supported: none, mongo, sqlite)", cfg.Backend)
	}
}
