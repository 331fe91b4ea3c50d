package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// LogWriter writes audit entries as JSON lines on a logger.
type LogWriter struct {
	logger *log.Logger
	now    func() time.Time
}

// NewLogWriter constructs a writer; a nil logger selects log.Default().
func NewLogWriter(logger *log.Logger) *LogWriter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogWriter{logger: logger, now: time.Now}
}

// Log writes an audit entry, filling id, time and digest when missing.
func (w *LogWriter) Log(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = w.now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	w.logger.Printf("audit %s", line)
	return nil
}
