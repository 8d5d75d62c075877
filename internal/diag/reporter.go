package diag

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Reporter accumulates diagnostics and renders them against cached source
// text, the way the teacher's errors.Reporter renders compile errors against
// cached .sola source -- here the "source" is MIR text fed to
// cmd/pressuretrace or internal/pressuresvc.
type Reporter struct {
	sourceCache map[string][]string
	diags       []*Diagnostic
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{sourceCache: make(map[string][]string)}
}

// LoadSource reads filename into the source cache, a no-op if already
// cached.
func (r *Reporter) LoadSource(filename string) error {
	if _, ok := r.sourceCache[filename]; ok {
		return nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	r.sourceCache[filename] = lines
	return nil
}

// SetSource caches content directly under filename, for in-memory MIR text
// that was never read from disk.
func (r *Reporter) SetSource(filename, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// GetSourceLine returns the 1-based line of filename, or "" if out of
// range or not cached.
func (r *Reporter) GetSourceLine(filename string, line int) string {
	lines, ok := r.sourceCache[filename]
	if !ok || line <= 0 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Report records d.
func (r *Reporter) Report(d *Diagnostic) {
	r.diags = append(r.diags, d)
}

// Diagnostics returns every diagnostic reported so far, in report order.
func (r *Reporter) Diagnostics() []*Diagnostic {
	return r.diags
}

// HasErrors reports whether any reported diagnostic is LevelError.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Format renders every reported diagnostic with one line of source context
// when available.
func (r *Reporter) Format() string {
	var sb strings.Builder
	for _, d := range r.diags {
		sb.WriteString(d.Error())
		sb.WriteByte('\n')
		if line := r.GetSourceLine(d.File, d.Line); line != "" {
			fmt.Fprintf(&sb, "  %d | %s\n", d.Line, line)
		}
	}
	return sb.String()
}
