package errors

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
)

// Diagnostic is a problem found in one style file.
type Diagnostic struct {
	Consumer  string
	File      string
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// Severity represents the severity of a diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
}

// Collector keeps the latest diagnostics per style file.
type Collector struct {
	diagnostics map[string]Diagnostic
	mutex       sync.RWMutex
}

// NewCollector creates a new collector
func NewCollector() *Collector {
	return &Collector{diagnostics: make(map[string]Diagnostic)}
}

// Add records d, replacing any earlier diagnostic for the same file.
func (c *Collector) Add(d Diagnostic) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	c.diagnostics[d.File] = d
}

// AddError records err against file at error severity.
func (c *Collector) AddError(consumer, file string, err error) {
	if err == nil {
		return
	}
	c.Add(Diagnostic{
		Consumer: consumer,
		File:     file,
		Message:  err.Error(),
		Severity: SeverityError,
	})
}

// Resolve forgets the diagnostic of file, typically after it compiled cleanly.
func (c *Collector) Resolve(file string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.diagnostics, file)
}

// Diagnostics returns every diagnostic ordered by file name.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	out := make([]Diagnostic, 0, len(c.diagnostics))
	for _, d := range c.diagnostics {
		out = append(out, d)
	}
	sortDiagnostics(out)
	return out
}

// HasErrors returns true if there are any diagnostics
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.diagnostics) > 0
}

// Clear clears all diagnostics
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = make(map[string]Diagnostic)
}

func sortDiagnostics(ds []Diagnostic) {
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && ds[j].File < ds[j-1].File; j-- {
			ds[j], ds[j-1] = ds[j-1], ds[j]
		}
	}
}

// Overlay renders the diagnostics as an HTML fragment for the preview page.
func (c *Collector) Overlay() string {
	diagnostics := c.Diagnostics()
	if len(diagnostics) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="stylesync-error-overlay">`)
	b.WriteString(`<h2>Style Errors</h2>`)
	for _, d := range diagnostics {
		fmt.Fprintf(&b,
			`<div class="stylesync-diagnostic stylesync-%s"><strong>%s</strong> <span>%s</span><pre>%s</pre></div>`,
			d.Severity,
			html.EscapeString(d.File),
			d.Timestamp.Format("15:04:05"),
			html.EscapeString(d.Message),
		)
	}
	b.WriteString(`</div>`)
	return b.String()
}
