package importer

import (
	"context"
	"fmt"
	"sync"
)

// ImportType selects full semantics (every row is created; existing rows are
// neither replaced nor deleted) or incremental upsert semantics, per spec §4.4.
type ImportType string

const (
	TypeFull        ImportType = "full"
	TypeIncremental ImportType = "incremental"
)

// ProgressFunc is called every N processed records (default 100) so the
// runner can push a job's counters through the orchestrator without the
// importer itself depending on it.
type ProgressFunc func(processed int)

// CancelFunc reports whether the run should stop at the next row boundary
// (the job was paused or cancelled out from under it).
type CancelFunc func() bool

// Result is the shape persisted as the job's outputStats (spec §4.4).
type Result struct {
	Success   bool     `json:"success"`
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Importer turns one tabular file format into persisted Person/Address/
// Phone/Email records.
type Importer interface {
	FormatID() string
	FormatName() string
	SupportedExtensions() []string
	SupportsIncremental() bool
	Import(ctx context.Context, filePath string, importType ImportType, onProgress ProgressFunc, shouldCancel CancelFunc) (Result, error)
}

// Registry is the formatId -> Importer dispatch table, the same
// concurrency-safe single-owner-per-key shape as runtime.Registry.
type Registry struct {
	mu        sync.RWMutex
	importers map[string]Importer
}

func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]Importer)}
}

func (r *Registry) Register(imp Importer) error {
	if imp == nil {
		return fmt.Errorf("nil importer")
	}
	id := imp.FormatID()
	if id == "" {
		return fmt.Errorf("importer FormatID() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.importers[id]; exists {
		return fmt.Errorf("importer already registered for format=%s", id)
	}
	r.importers[id] = imp
	return nil
}

func (r *Registry) Get(formatID string) (Importer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	imp, ok := r.importers[formatID]
	return imp, ok
}

// Validate re-checks the extension/incremental constraints the API
// collaborator already checked before job creation — the runner does not
// trust payload state blindly, per spec §4.4.
func Validate(imp Importer, filePath string, importType ImportType) error {
	ext := extOf(filePath)
	ok := false
	for _, e := range imp.SupportedExtensions() {
		if e == ext {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("format %s does not support extension %q", imp.FormatID(), ext)
	}
	if importType == TypeIncremental && !imp.SupportsIncremental() {
		return fmt.Errorf("format %s does not support incremental imports", imp.FormatID())
	}
	return nil
}

func extOf(filePath string) string {
	for i := len(filePath) - 1; i >= 0; i-- {
		if filePath[i] == '.' {
			return filePath[i:]
		}
		if filePath[i] == '/' {
			break
		}
	}
	return ""
}
