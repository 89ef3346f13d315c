// Package threearc extracts the entries of length-prefixed container files.
//
// A container holds a count, a table of entry lengths and the entries back
// to back. Each entry is sniffed as PNG, JPEG, MP3 or XOR-obfuscated JSON,
// filtered by an export policy and written out under a file name derived
// from the container's name and the entry index.
//
// # Basic Usage
//
// Extract one container into a directory:
//
//	x := threearc.New(threearc.WithOutputDir("out", false))
//	run, err := x.ExtractFile(ctx, "data/ui.3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("exported %d of %d entries\n", run.Exported, run.Entries)
//
// # Classification Only
//
// Inspect a container without writing anything:
//
//	records, err := threearc.New(threearc.WithKey(key)).ClassifyFile("data/ui.3")
//	for _, r := range records {
//	    fmt.Println(r.Index, r.Kind, r.Width, r.Height)
//	}
package threearc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oiutils/threearc/pkg/container"
	"github.com/oiutils/threearc/pkg/enum"
	"github.com/oiutils/threearc/pkg/extract"
	"github.com/oiutils/threearc/pkg/policy"
	"github.com/oiutils/threearc/pkg/sniff"
	"github.com/oiutils/threearc/pkg/store"
	"github.com/oiutils/threearc/pkg/types"
)

// Re-export commonly used types for convenience.
type (
	// Kind is the classification of an entry.
	Kind = types.Kind

	// Record describes how one entry was classified and handled.
	Record = types.Record

	// ContainerRun summarises one processed container.
	ContainerRun = types.ContainerRun

	// Policy holds the export switches.
	Policy = policy.Policy
)

// Re-export kind constants.
const (
	KindUnknown = types.KindUnknown
	KindPNG     = types.KindPNG
	KindJPEG    = types.KindJPEG
	KindMP3     = types.KindMP3
	KindJSON    = types.KindJSON
)

// Extractor extracts containers with a fixed configuration.
type Extractor struct {
	config *extractorConfig
	x      *extract.Extractor
}

type extractorConfig struct {
	extract  extract.Config
	sink     extract.Sink
	logger   logrus.FieldLogger
	store    store.Store
	onRecord extract.RecordFunc
}

// Option configures an Extractor.
type Option func(*extractorConfig)

// WithConfig replaces the whole extraction configuration, such as one
// built by config.Config.Extract.
func WithConfig(cfg extract.Config) Option {
	return func(c *extractorConfig) {
		c.extract = cfg
	}
}

// WithKey sets the cipher key. Without a key entries are never decoded as
// JSON.
func WithKey(key []byte) Option {
	return func(c *extractorConfig) {
		c.extract.Key = key
	}
}

// WithPolicy replaces the export policy.
func WithPolicy(p Policy) Option {
	return func(c *extractorConfig) {
		c.extract.Policy = p
	}
}

// WithPrettify turns re-indenting of JSON entries on or off. Default is on.
func WithPrettify(on bool) Option {
	return func(c *extractorConfig) {
		c.extract.Prettify = on
	}
}

// WithOrders overrides the sniffing order for some container types.
func WithOrders(orders sniff.Orders) Option {
	return func(c *extractorConfig) {
		c.extract.Orders = orders
	}
}

// WithPermissiveJFIF accepts JPEGs whose second segment is not APP0.
func WithPermissiveJFIF() Option {
	return func(c *extractorConfig) {
		c.extract.JFIF.AllowNonAPP0 = true
	}
}

// WithOutputDir writes exported entries below dir. With preserve, the
// container's directory relative to its enumeration root is kept.
func WithOutputDir(dir string, preserve bool) Option {
	return func(c *extractorConfig) {
		c.sink = extract.DirSink{OutputPath: dir, PreserveStructure: preserve}
	}
}

// WithSink replaces the output sink.
func WithSink(sink extract.Sink) Option {
	return func(c *extractorConfig) {
		c.sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *extractorConfig) {
		c.logger = l
	}
}

// WithStore records every container run and entry record in s.
func WithStore(s store.Store) Option {
	return func(c *extractorConfig) {
		c.store = s
	}
}

// WithRecordFunc registers a callback for entry records. It runs after the
// record is stored.
func WithRecordFunc(fn extract.RecordFunc) Option {
	return func(c *extractorConfig) {
		c.onRecord = fn
	}
}

// New creates an Extractor.
//
// By default, the extractor:
//   - has no key, so JSON entries come out as raw data
//   - skips an unrecognized first entry and 1x1 and 4x4 images
//   - re-indents JSON entries
//   - writes next to each container
func New(opts ...Option) *Extractor {
	config := &extractorConfig{
		extract: extract.DefaultConfig(),
		sink:    extract.DirSink{},
		logger:  logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(config)
	}

	x := extract.New(config.extract, config.sink,
		extract.WithLogger(config.logger),
		extract.WithRecordFunc(config.record),
	)
	return &Extractor{config: config, x: x}
}

func (c *extractorConfig) record(r types.Record) error {
	if c.store != nil {
		if err := c.store.AddRecord(&r); err != nil {
			return err
		}
	}
	if c.onRecord != nil {
		return c.onRecord(r)
	}
	return nil
}

// ExtractFile extracts the container at path. The container type is the
// numeric file extension.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*ContainerRun, error) {
	t, ok := enum.ContainerType(path)
	if !ok {
		return nil, fmt.Errorf("%s: extension is not a container type", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading container size: %w", err)
	}

	return e.Extract(ctx, extract.Input{
		Name:       path,
		Type:       t,
		Provenance: types.FileProvenance{FilePath: path},
		Source:     f,
		Size:       info.Size(),
	})
}

// Extract extracts one container and stores the run when a store is set.
func (e *Extractor) Extract(ctx context.Context, in extract.Input) (*ContainerRun, error) {
	run, err := e.x.Extract(ctx, in)
	if e.config.store != nil {
		if serr := e.config.store.AddContainer(run); serr != nil && err == nil {
			err = serr
		}
	}
	return run, err
}

// Summary totals a multi-container run.
type Summary struct {
	Containers int
	Failed     int
	Entries    int
	Exported   int
	Skipped    int
}

// Run extracts every container yielded by en. A failed container does not
// stop the run: onDone is called with its run and error, and it is counted
// in Summary.Failed. Only enumeration errors and cancellation are returned.
func (e *Extractor) Run(ctx context.Context, en enum.Enumerator, onDone func(*ContainerRun, error)) (Summary, error) {
	var (
		mu  sync.Mutex
		sum Summary
	)

	err := en.Enumerate(ctx, func(ctx context.Context, c enum.Container) error {
		run, err := e.Extract(ctx, extract.Input{
			Name:       c.Name,
			Root:       c.Root,
			Provenance: c.Provenance,
			Type:       c.Type,
			Source:     c.Source,
			Size:       c.Size,
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}

		mu.Lock()
		sum.Containers++
		sum.Entries += run.Entries
		sum.Exported += run.Exported
		sum.Skipped += run.Skipped
		if err != nil {
			sum.Failed++
		}
		mu.Unlock()

		if onDone != nil {
			onDone(run, err)
		}
		return nil
	})
	return sum, err
}

// Classify reports how every entry of a container would be handled,
// without writing anything.
func (e *Extractor) Classify(name string, containerType int, src io.ReaderAt, size int64) ([]Record, error) {
	r, err := container.Open(src, size)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	chain := e.x.Chain(containerType)
	total := r.Header().Count()
	records := make([]Record, 0, total)
	for _, entry := range r.Header().Entries() {
		res := chain.Classify(src, entry)
		d := e.config.extract.Policy.Decide(entry.Index, res)

		rec := extract.NewRecord(name, containerType, total, entry, res)
		rec.Skipped = d.Skip
		rec.SkipReason = d.Reason
		if !d.Skip {
			rec.Output = extract.OutputName(name, entry.Index, d.Extension)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ClassifyFile classifies the container at path.
func (e *Extractor) ClassifyFile(path string) ([]Record, error) {
	t, ok := enum.ContainerType(path)
	if !ok {
		return nil, fmt.Errorf("%s: extension is not a container type", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading container size: %w", err)
	}
	return e.Classify(path, t, f, info.Size())
}
