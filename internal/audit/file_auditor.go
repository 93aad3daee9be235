package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/darmiel/verdict/internal/core"
)

var _ core.Auditor = (*FileAuditor)(nil)

// FileAuditor appends audit entries to a log file, one JSON object per
// line. The log is append-only and never read back by the server;
// querying it is a job for external log tooling, which is why this
// backend does not implement core.AuditReader.
type FileAuditor struct {
	mu  sync.Mutex
	out *os.File
	enc *json.Encoder
}

func NewFileAuditor(path string) (*FileAuditor, error) {
	out, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log %s: %w", path, err)
	}
	return &FileAuditor{out: out, enc: json.NewEncoder(out)}, nil
}

func (f *FileAuditor) Log(entry core.AuditEntry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enc.Encode(entry); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (f *FileAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Close()
}
