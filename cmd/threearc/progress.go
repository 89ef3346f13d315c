package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/oiutils/threearc"
	"github.com/oiutils/threearc/pkg/types"
)

// styles holds the color formatters for progress and report output.
type styles struct {
	heading  *color.Color
	path     *color.Color
	exported *color.Color
	skipped  *color.Color
	kind     *color.Color
	ok       *color.Color
	empty    *color.Color
	failed   *color.Color
	metadata *color.Color
}

// newStyles creates color formatters.
// enabled=false disables colors on every formatter.
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold, color.FgHiWhite),
		path:     color.New(color.FgHiBlue),
		exported: color.New(color.FgHiGreen),
		skipped:  color.New(color.FgYellow),
		kind:     color.New(color.Bold),
		ok:       color.New(color.FgGreen),
		empty:    color.New(color.FgYellow),
		failed:   color.New(color.Bold, color.FgRed),
		metadata: color.New(color.FgHiBlack),
	}

	for _, c := range []*color.Color{s.heading, s.path, s.exported, s.skipped, s.kind, s.ok, s.empty, s.failed, s.metadata} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// colorEnabled resolves a --color mode. "auto" enables colors when stdout is
// a terminal and NO_COLOR is unset.
func colorEnabled(mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("unknown color mode: %s", mode)
	}
}

func (s *styles) status(st types.ContainerStatus) string {
	switch st {
	case types.ContainerOK:
		return s.ok.Sprint(st)
	case types.ContainerEmpty:
		return s.empty.Sprint(st)
	default:
		return s.failed.Sprint(st)
	}
}

// progress prints container and entry lines while extracting. Level 3
// announces containers, 4 adds one line per entry, 5 adds byte ranges.
type progress struct {
	mu    sync.Mutex
	out   io.Writer
	level int
	s     *styles
}

func (p *progress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *progress) container(name string) {
	if p.level >= 3 {
		p.printf("Processing file %s...\n", p.s.path.Sprint(name))
	}
}

func (p *progress) entry(r types.Record) error {
	if p.level >= 4 {
		p.printf("%s\n", formatEntry(r, p.level >= 5, p.s))
	}
	return nil
}

func (p *progress) done(run *threearc.ContainerRun, err error) {
	if err != nil {
		logrus.WithField("container", run.Path).WithError(err).Error("extraction failed")
		return
	}
	if p.level < 3 {
		return
	}
	if run.Status == types.ContainerEmpty {
		p.printf("  %s\n", p.s.status(run.Status))
		return
	}
	p.printf("  %d entries, %s exported, %s skipped\n", run.Entries,
		p.s.exported.Sprint(run.Exported), p.s.skipped.Sprint(run.Skipped))
}

func (p *progress) summary(sum threearc.Summary, unreadable int, elapsed time.Duration) {
	if p.level < 3 {
		return
	}
	p.printf("%s %d containers, %d entries, %s exported, %s skipped",
		p.s.heading.Sprint("Done:"), sum.Containers, sum.Entries,
		p.s.exported.Sprint(sum.Exported), p.s.skipped.Sprint(sum.Skipped))
	if failed := sum.Failed + unreadable; failed > 0 {
		p.printf(", %s", p.s.failed.Sprintf("%d failed", failed))
	}
	if p.level >= 4 {
		p.printf(" in %s", elapsed.Round(time.Millisecond))
	}
	p.printf("\n")
}

// formatEntry renders one entry record: direction marker, index, kind and
// header fields, optional byte range, and size.
func formatEntry(r types.Record, withRange bool, s *styles) string {
	var b strings.Builder

	last := max(r.Total-1, 0)
	width := len(strconv.Itoa(last))
	marker := s.exported.Sprint("  ->")
	if r.Skipped {
		marker = s.skipped.Sprint("<-  ")
	}
	fmt.Fprintf(&b, "  %s  %*d/%*d", marker, width, r.Index, width, last)

	kind := s.kind.Sprintf("%-4s", r.Kind)
	switch {
	case r.PNG != nil:
		h := r.PNG
		fmt.Fprintf(&b, " %s %-4d  %-4d  %-2d  %-2d  %-2d  %-2d  %-2d", kind,
			h.Width, h.Height, h.BitDepth, h.ColorType, h.CompressionMethod, h.FilterMethod, h.InterlaceMethod)
	case r.JFIF != nil:
		h := r.JFIF
		fmt.Fprintf(&b, " %s %-4d  %-4d  %-2d  %-14s", kind, h.Width, h.Height, h.BitDepth, "")
	default:
		fmt.Fprintf(&b, " %s %-30s", kind, "")
	}

	if withRange {
		fmt.Fprintf(&b, " %s", s.metadata.Sprintf("[%08X,%08X]", r.Offset, r.End()))
	}
	fmt.Fprintf(&b, "  (%s)", humanize.Bytes(uint64(r.Length)))
	return b.String()
}
