package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	// renderInterval throttles redraws of an interactive bar.
	renderInterval = 100 * time.Millisecond
	// barWidth is the number of cells between the brackets.
	barWidth = 30
)

var labelColor = color.New(color.FgHiCyan)

// Bar is a byte counter that draws itself on out. It implements io.Writer so
// it can sit behind an io.TeeReader.
type Bar struct {
	mu sync.Mutex

	// out receives the rendered bar.
	out io.Writer
	// label prefixes every rendered line.
	label string
	// total is the expected byte count; zero or negative when unknown.
	total int64
	// current is the number of bytes seen so far.
	current int64
	// interactive enables carriage-return redraws.
	interactive bool
	// lastRender is when the bar was last drawn.
	lastRender time.Time
	// started is when the bar was created.
	started time.Time
	// stopped is set once Stop has run.
	stopped bool
}

// NewBar creates a bar going from 0 to total bytes.
func NewBar(out io.Writer, label string, total int64) *Bar {
	return &Bar{
		out:         out,
		label:       label,
		total:       total,
		interactive: IsTerminal(out),
		started:     time.Now(),
	}
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Write counts len(p) bytes and never fails.
func (b *Bar) Write(p []byte) (int, error) {
	b.Add(int64(len(p)))

	return len(p), nil
}

// Add advances the bar by n bytes.
func (b *Bar) Add(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	b.current += n

	if !b.interactive || time.Since(b.lastRender) < renderInterval {
		return
	}

	b.render()
}

// Current returns the number of bytes counted so far.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current
}

// Total returns the expected byte count.
func (b *Bar) Total() int64 {
	return b.total
}

// Stop draws the final state and ends the line. It is safe to call more than once.
func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	b.stopped = true

	if b.interactive {
		b.render()
		_, _ = fmt.Fprintln(b.out)

		return
	}

	_, _ = fmt.Fprintf(b.out, "%s %s in %s\n",
		b.label, humanize.Bytes(uint64(max(b.current, 0))), time.Since(b.started).Round(time.Millisecond))
}

// render draws the bar; the caller holds mu.
func (b *Bar) render() {
	b.lastRender = time.Now()

	current := humanize.Bytes(uint64(max(b.current, 0)))
	if b.total <= 0 {
		_, _ = fmt.Fprintf(b.out, "\r%s %s", labelColor.Sprint(b.label), current)
		return
	}

	ratio := float64(b.current) / float64(b.total)
	ratio = min(max(ratio, 0), 1)
	filled := int(ratio * barWidth)

	_, _ = fmt.Fprintf(b.out, "\r%s [%s%s] %3.0f%% %s / %s",
		labelColor.Sprint(b.label),
		strings.Repeat("=", filled),
		strings.Repeat(" ", barWidth-filled),
		ratio*100, //nolint:mnd // Percent.
		current,
		humanize.Bytes(uint64(b.total)),
	)
}
