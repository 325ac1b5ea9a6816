package provisioning

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"
)

// Observer defines the interface for structured observability during orchestration.
type Observer interface {
	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase. total is zero when unknown.
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer

	// Logger returns the underlying logger.
	Logger() logr.Logger
}

// Event represents a structured orchestration event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "storage", "compute")
	Message   string            // Human-readable message
	Resource  string            // Resource name/ID if applicable
	Err       error             // Cause, for failures, retries and fallbacks
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of orchestration event.
type EventType string

const (
	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource already exists.
	EventResourceExists EventType = "resource.exists"
	// EventResourceFailed indicates an operation on a resource failed.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"
	// EventResourceWaiting indicates a poll for a resource state.
	EventResourceWaiting EventType = "resource.waiting"

	// EventRetry indicates an operation is retried.
	EventRetry EventType = "retry"
	// EventFallback indicates an alternate code path was taken after a failure.
	EventFallback EventType = "fallback"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// LogObserver implements Observer on a logr.Logger.
type LogObserver struct {
	log           logr.Logger
	contextFields map[string]string
}

// NewObserver creates an observer writing to log.
func NewObserver(log logr.Logger) *LogObserver {
	return &LogObserver{
		log:           log,
		contextFields: make(map[string]string),
	}
}

// NopObserver returns an observer that discards everything.
func NopObserver() *LogObserver {
	return NewObserver(logr.Discard())
}

// Logger implements Observer.
func (o *LogObserver) Logger() logr.Logger {
	return o.log
}

// Event implements Observer interface.
func (o *LogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	kv = append(kv, o.mergedFields(event.Fields)...)

	switch event.Type {
	case EventResourceFailed:
		o.log.Error(event.Err, event.Message, kv...)
	case EventRetry, EventFallback:
		if event.Err != nil {
			kv = append(kv, "cause", event.Err.Error())
		}
		o.log.Info(event.Message, kv...)
	case EventResourceWaiting, EventProgress:
		o.log.V(1).Info(event.Message, kv...)
	default:
		o.log.Info(event.Message, kv...)
	}
}

// Progress implements Observer interface.
func (o *LogObserver) Progress(phase string, current, total int) {
	if total == 0 {
		o.Event(Event{Type: EventProgress, Phase: phase, Message: fmt.Sprintf("progress: %d", current)})
		return
	}
	percentage := (current * 100) / total
	o.Event(Event{Type: EventProgress, Phase: phase, Message: fmt.Sprintf("progress: %d/%d (%d%%)", current, total, percentage)})
}

// WithFields implements Observer interface.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &LogObserver{
		log:           o.log,
		contextFields: newFields,
	}
}

// mergedFields returns event fields over context fields as sorted key/value pairs.
func (o *LogObserver) mergedFields(fields map[string]string) []any {
	merged := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, merged[k])
	}
	return kv
}

// Log formats accepted by NewLogger.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
)

// NewLogger builds a logr.Logger writing to w. FormatAuto selects JSON unless
// w is a terminal.
func NewLogger(w io.Writer, format string, verbosity int) logr.Logger {
	sw := &syncWriter{w: w}
	opts := funcr.Options{
		LogTimestamp: true,
		Verbosity:    verbosity,
	}

	if resolveFormat(w, format) == FormatJSON {
		return funcr.NewJSON(func(obj string) {
			sw.writeLine(obj)
		}, opts)
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			sw.writeLine(prefix + ": " + args)
			return
		}
		sw.writeLine(args)
	}, opts)
}

func resolveFormat(w io.Writer, format string) string {
	switch format {
	case FormatJSON, FormatText:
		return format
	}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return FormatText
	}
	return FormatJSON
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) writeLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, line+"\n")
}

// Helper functions for common events

// LogResourceCreating logs a resource creation start event.
func LogResourceCreating(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("creating %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
		Fields: map[string]string{
			"type": resourceType,
			"id":   resourceID,
		},
	})
}

// LogResourceExists logs when a resource already exists.
func LogResourceExists(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s already exists", resourceType),
		Fields: map[string]string{
			"type": resourceType,
			"id":   resourceID,
		},
	})
}

// LogResourceFailed logs a failed operation on a resource.
func LogResourceFailed(observer Observer, phase, resourceType, resourceName string, err error) {
	observer.Event(Event{
		Type:     EventResourceFailed,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s operation failed", resourceType),
		Err:      err,
		Fields: map[string]string{
			"type": resourceType,
			"kind": Kind(err),
		},
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("deleting %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceDeleted logs a successful resource deletion event.
func LogResourceDeleted(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s deleted", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogRetry logs a retry of operation after err.
func LogRetry(observer Observer, phase, operation, reason string, err error) {
	observer.Event(Event{
		Type:    EventRetry,
		Phase:   phase,
		Message: fmt.Sprintf("retrying %s", operation),
		Err:     err,
		Fields: map[string]string{
			"operation": operation,
			"reason":    reason,
		},
	})
}

// LogFallback logs that operation switched to an alternate path after err.
func LogFallback(observer Observer, phase, operation, resourceName, path string, err error) {
	observer.Event(Event{
		Type:     EventFallback,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s falling back to %s", operation, path),
		Err:      err,
		Fields: map[string]string{
			"operation": operation,
			"path":      path,
		},
	})
}
