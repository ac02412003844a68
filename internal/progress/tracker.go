package progress

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Status is the lifecycle stage of a tracked item.
type Status int

const (
	// StatusAdded means the item is known but not started.
	StatusAdded Status = iota
	// StatusProcessing means work on the item is under way.
	StatusProcessing
	// StatusCompleted means the item finished successfully.
	StatusCompleted
	// StatusErrored means the item failed.
	StatusErrored
)

var (
	failedColor    = color.New(color.FgHiRed, color.Bold)
	completedColor = color.New(color.FgHiGreen)
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Item is a snapshot of one tracked entry.
type Item struct {
	// Name identifies the item, usually a relative file path.
	Name string
	// Operation is what is being done to the item, e.g. REPLACE.
	Operation string
	// Status is the current lifecycle stage.
	Status Status
	// Message holds the failure reason for errored items.
	Message string
}

// Summary counts tracked items.
type Summary struct {
	// Total is the number of tracked items.
	Total int
	// Completed counts finished items per operation.
	Completed map[string]int
	// Failed is the number of errored items.
	Failed int
	// Pending is the number of items neither completed nor errored.
	Pending int
}

// Tracker records the status of many concurrently processed items.
type Tracker struct {
	mu sync.Mutex

	// out receives per-item lines and the final summary.
	out io.Writer
	// verbose prints a line for every completed item, not only failures.
	verbose bool
	// items holds entries in the order they were added.
	items []*Item
	// index maps names to positions in items.
	index map[string]int
	// finished is set once Finish has run.
	finished bool
}

// NewTracker creates a tracker writing to out.
func NewTracker(out io.Writer, verbose bool) *Tracker {
	return &Tracker{
		out:     out,
		verbose: verbose,
		index:   make(map[string]int),
	}
}

// Add registers name with its operation.
func (t *Tracker) Add(name, operation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.item(name).Operation = operation
}

// Start marks name as processing.
func (t *Tracker) Start(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.item(name).Status = StatusProcessing
}

// Complete marks name as completed.
func (t *Tracker) Complete(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	it := t.item(name)
	it.Status = StatusCompleted

	if t.verbose {
		_, _ = fmt.Fprintf(t.out, "  %s %s\n", completedColor.Sprintf("%-7s", it.Operation), it.Name)
	}
}

// Fail marks name as errored with the reason err.
func (t *Tracker) Fail(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	it := t.item(name)
	it.Status = StatusErrored

	if err != nil {
		it.Message = err.Error()
	}

	_, _ = fmt.Fprintf(t.out, "  %s %s: %s\n", failedColor.Sprintf("%-7s", "FAILED"), it.Name, it.Message)
}

// Items returns a copy of every tracked item in insertion order.
func (t *Tracker) Items() []Item {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]Item, 0, len(t.items))
	for _, it := range t.items {
		items = append(items, *it)
	}

	return items
}

// Summary counts the tracked items by outcome.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := Summary{
		Total:     len(t.items),
		Completed: make(map[string]int),
	}

	for _, it := range t.items {
		switch it.Status {
		case StatusCompleted:
			summary.Completed[it.Operation]++
		case StatusErrored:
			summary.Failed++
		default:
			summary.Pending++
		}
	}

	return summary
}

// Finish prints the summary line once.
func (t *Tracker) Finish() {
	summary := t.Summary()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}

	t.finished = true

	operations := make([]string, 0, len(summary.Completed))
	for operation := range summary.Completed {
		operations = append(operations, operation)
	}

	sort.Strings(operations)

	parts := make([]string, 0, len(operations))
	for _, operation := range operations {
		parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(operation), summary.Completed[operation]))
	}

	line := fmt.Sprintf("%d files processed", summary.Total)
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}

	if summary.Failed > 0 {
		line += ", " + failedColor.Sprintf("%d failed", summary.Failed)
	}

	_, _ = fmt.Fprintln(t.out, line)
}

// item returns the entry for name, creating it when missing; the caller holds mu.
func (t *Tracker) item(name string) *Item {
	if i, ok := t.index[name]; ok {
		return t.items[i]
	}

	it := &Item{Name: name}
	t.index[name] = len(t.items)
	t.items = append(t.items, it)

	return it
}
