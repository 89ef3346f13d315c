// Package extract drives the per-container extraction loop: classify each
// entry, apply the export policy, and write the exported entries to a Sink.
package extract

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oiutils/threearc/pkg/container"
	"github.com/oiutils/threearc/pkg/jsonfmt"
	"github.com/oiutils/threearc/pkg/policy"
	"github.com/oiutils/threearc/pkg/sniff"
	"github.com/oiutils/threearc/pkg/types"
)

// Input is one container to extract.
type Input struct {
	// Name is the container's path. Its stem names the exported files.
	Name string
	// Root is the enumeration root Name was found under.
	Root       string
	Provenance types.Provenance
	// Type selects the sniffing order, usually the numeric file extension.
	Type   int
	Source io.ReaderAt
	Size   int64
}

// Config controls classification and export.
type Config struct {
	Key      []byte
	Orders   sniff.Orders
	JFIF     sniff.JFIFOptions
	Policy   policy.Policy
	Prettify bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{Policy: policy.Default(), Prettify: true}
}

// RecordFunc receives every entry record, exported or skipped. Returning an
// error aborts the container.
type RecordFunc func(types.Record) error

// Extractor extracts containers with a fixed configuration. It is safe for
// concurrent use when its Sink and RecordFunc are.
type Extractor struct {
	cfg      Config
	sink     Sink
	logger   logrus.FieldLogger
	onRecord RecordFunc
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// WithRecordFunc registers a callback for entry records.
func WithRecordFunc(fn RecordFunc) Option {
	return func(e *Extractor) {
		e.onRecord = fn
	}
}

// New returns an Extractor writing to sink.
func New(cfg Config, sink Sink, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:    cfg,
		sink:   sink,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Chain returns the recognizer chain for a container type.
func (x *Extractor) Chain(containerType int) *sniff.Chain {
	return &sniff.Chain{
		Order:     x.cfg.Orders.For(containerType),
		Key:       x.cfg.Key,
		JFIF:      x.cfg.JFIF,
		JSONFirst: sniff.JSONFirstEntry(containerType),
		Logger:    x.logger,
	}
}

// Extract processes every entry of in. The returned run is always non-nil
// and describes how far processing got; the error is non-nil when the
// container was abandoned.
func (x *Extractor) Extract(ctx context.Context, in Input) (*types.ContainerRun, error) {
	run := &types.ContainerRun{
		Path:   in.Name,
		Type:   in.Type,
		Size:   in.Size,
		Status: types.ContainerOK,
	}
	if in.Provenance != nil {
		run.Provenance = in.Provenance.Path()
	}

	err := x.extract(ctx, in, run)
	if err != nil {
		run.Status = types.ContainerFailed
		run.Error = err.Error()
	}
	return run, err
}

func (x *Extractor) extract(ctx context.Context, in Input, run *types.ContainerRun) error {
	r, err := container.Open(in.Source, in.Size)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in.Name, err)
	}

	total := r.Header().Count()
	run.Entries = total
	if total == 0 {
		run.Status = types.ContainerEmpty
		return nil
	}

	log := x.logger.WithField("container", in.Name)
	log.WithFields(logrus.Fields{
		"type":    in.Type,
		"entries": total,
	}).Debug("extracting container")

	chain := x.Chain(in.Type)
	for {
		e, ok := r.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		res := chain.Classify(r.Source(), e)
		d := x.cfg.Policy.Decide(e.Index, res)
		rec := NewRecord(in.Name, in.Type, total, e, res)

		if d.Skip {
			r.Skip()
			rec.Skipped = true
			rec.SkipReason = d.Reason
			run.Skipped++
		} else {
			out, err := x.write(r, in, e, res, d)
			rec.Output = out
			if err != nil {
				return fmt.Errorf("%s entry %d: %w", in.Name, e.Index, err)
			}
			run.Exported++
		}

		log.WithFields(logrus.Fields{
			"entry":   e.Index,
			"kind":    rec.Kind.String(),
			"skipped": rec.Skipped,
		}).Trace("entry processed")

		if x.onRecord != nil {
			if err := x.onRecord(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// write exports the entry at the cursor and advances past it.
func (x *Extractor) write(r *container.Reader, in Input, e container.Entry, res sniff.Result, d policy.Decision) (path string, err error) {
	w, path, err := x.sink.Create(in, OutputName(in.Name, e.Index, d.Extension))
	if err != nil {
		return path, err
	}
	defer func() {
		if w == nil {
			return
		}
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	payload, isJSON := res.JSON()
	if !isJSON {
		if _, err = r.Copy(w); err != nil {
			x.discard(w, path)
			w = nil
			return "", err
		}
		return path, nil
	}

	text := payload.Text
	if x.cfg.Prettify {
		text, err = jsonfmt.ReindentOrKeep(text)
		if err != nil {
			x.logger.WithFields(logrus.Fields{
				"container": in.Name,
				"entry":     e.Index,
			}).Debugf("keeping json text as is: %v", err)
		}
	}
	r.Skip()
	if _, err := io.WriteString(w, text); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// discard closes and removes a partially written output.
func (x *Extractor) discard(w io.Closer, path string) {
	log := x.logger.WithField("output", path)
	if err := w.Close(); err != nil {
		log.Debugf("closing partial output: %v", err)
	}
	if err := x.sink.Remove(path); err != nil {
		log.Warnf("removing partial output: %v", err)
	}
}

// NewRecord describes entry e of a container holding total entries,
// classified as res.
func NewRecord(name string, containerType, total int, e container.Entry, res sniff.Result) types.Record {
	rec := types.Record{
		Container:     name,
		ContainerType: containerType,
		Index:         e.Index,
		Total:         total,
		Kind:          res.Kind,
		Offset:        e.Offset,
		Length:        e.Length,
	}
	if w, h, ok := res.Dimensions(); ok {
		rec.HasDimensions = true
		rec.Width, rec.Height = w, h
	}
	switch h := res.Header.(type) {
	case *types.PNGHeader:
		rec.PNG = h
	case *types.JFIFHeader:
		rec.JFIF = h
	}
	return rec
}
