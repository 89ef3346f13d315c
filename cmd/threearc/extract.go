package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oiutils/threearc"
	"github.com/oiutils/threearc/pkg/config"
	"github.com/oiutils/threearc/pkg/enum"
	"github.com/oiutils/threearc/pkg/store"
)

// maxArchiveMember caps the size of a .7z member read into memory.
const maxArchiveMember = 1 << 30

var (
	extractOutput            string
	extractInputPath         string
	extractFilePatterns      string
	extractDirPatterns       string
	extractPreserve          bool
	extractExportUnknown     bool
	extractExportSinglePixel bool
	extractExcludeSizes      string
	extractPassword          string
	extractPrettify          bool
	extractJFIFPermissive    bool
	extractJobs              int
	extractManifest          string
	extractArchives          bool
	extractIncludeHidden     bool
	extractIgnoreFile        string
	extractColor             string
)

var extractCmd = &cobra.Command{
	Use:   "extract <path>...",
	Short: "Extract the entries of container files",
	Long: `Extract every entry of the container files found at the given paths.

A path may be a container file or a directory, which is searched
recursively. Each entry is written as <stem>_<index><ext> where the
extension follows the recognized format (.png, .jpg, .mp3, .json or .dat).

Flags set on the command line override the config file.`,
	RunE: runExtract,
}

func init() {
	addExtractFlags(extractCmd)
}

func addExtractFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&extractOutput, "output", "o", config.DefaultOutputPath, "Output directory (empty writes next to each container)")
	f.StringVarP(&extractInputPath, "input-path", "i", "", "Directory prepended to relative input paths")
	f.StringVarP(&extractFilePatterns, "file-patterns", "f", config.DefaultFilePatterns, "Container file patterns, separated by |")
	f.StringVarP(&extractDirPatterns, "dir-patterns", "d", config.DefaultDirectoryPatterns, "Directory patterns, separated by |")
	f.BoolVarP(&extractPreserve, "preserve", "s", true, "Keep the input directory structure below the output directory")
	f.BoolVar(&extractExportUnknown, "export-unknown", false, "Export an unrecognized first entry")
	f.BoolVar(&extractExportSinglePixel, "export-single-pixel", false, "Export images with an excluded size")
	f.StringVar(&extractExcludeSizes, "exclude-sizes", "1x1|4x4", "Placeholder image sizes, separated by |")
	f.StringVarP(&extractPassword, "password", "p", "", "Key for obfuscated JSON entries (or $"+config.PasswordEnv+")")
	f.BoolVar(&extractPrettify, "prettify", true, "Re-indent JSON entries")
	f.BoolVar(&extractJFIFPermissive, "jfif-permissive", false, "Accept JPEGs without an APP0 segment")
	f.IntVarP(&extractJobs, "jobs", "j", 1, "Number of containers extracted concurrently")
	f.StringVarP(&extractManifest, "manifest", "m", "", "Record containers and entries in this SQLite manifest")
	f.BoolVar(&extractArchives, "archives", false, "Extract containers found inside .7z archives")
	f.BoolVar(&extractIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	f.StringVar(&extractIgnoreFile, "ignore-file", config.DefaultIgnoreFile, "Gitignore-style file of paths to skip")
	f.StringVar(&extractColor, "color", "auto", "Color output: auto, always, never")
}

// applyExtractFlags copies the flags set on the command line over cfg.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputPath = extractOutput
	}
	if f.Changed("input-path") {
		cfg.InputPath = extractInputPath
	}
	if f.Changed("file-patterns") {
		cfg.FilePatterns = extractFilePatterns
	}
	if f.Changed("dir-patterns") {
		cfg.DirectoryPatterns = extractDirPatterns
	}
	if f.Changed("preserve") {
		cfg.PreserveDirectoryStructure = extractPreserve
	}
	if f.Changed("export-unknown") {
		cfg.ExportUnknownData = extractExportUnknown
	}
	if f.Changed("export-single-pixel") {
		cfg.ExportSinglePixelImage = extractExportSinglePixel
	}
	if f.Changed("exclude-sizes") {
		cfg.ExcludeImageSizes = extractExcludeSizes
	}
	if f.Changed("password") {
		cfg.Password = extractPassword
	}
	if f.Changed("prettify") {
		cfg.Prettify = extractPrettify
	}
	if f.Changed("jfif-permissive") {
		cfg.JFIFPermissive = extractJFIFPermissive
	}
	if f.Changed("jobs") {
		cfg.Jobs = extractJobs
	}
	if f.Changed("manifest") {
		cfg.Manifest = extractManifest
	}
	if f.Changed("archives") {
		cfg.Archives = extractArchives
	}
	if f.Changed("include-hidden") {
		cfg.IncludeHidden = extractIncludeHidden
	}
	if f.Changed("ignore-file") {
		cfg.IgnoreFile = extractIgnoreFile
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	xcfg, err := cfg.Extract()
	if err != nil {
		return err
	}
	if len(xcfg.Key) == 0 {
		logrus.Info("no password set, JSON entries are exported as .dat")
	}

	enabled, err := colorEnabled(extractColor)
	if err != nil {
		return err
	}
	p := &progress{out: cmd.OutOrStdout(), level: verbosity(), s: newStyles(enabled)}

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []threearc.Option{
		threearc.WithConfig(xcfg),
		threearc.WithSink(cfg.Sink()),
		threearc.WithLogger(logrus.StandardLogger()),
		threearc.WithRecordFunc(p.entry),
	}
	if cfg.Manifest != "" {
		s, err := store.New(store.Config{Path: cfg.Manifest})
		if err != nil {
			return fmt.Errorf("opening manifest: %w", err)
		}
		defer s.Close()
		opts = append(opts, threearc.WithStore(s))
	}
	x := threearc.New(opts...)

	roots, missing, err := inputRoots(cfg.InputPath, args)
	if err != nil {
		return err
	}

	var unreadable atomic.Int64
	unreadable.Add(int64(missing))
	en := newEnumerator(cfg, roots, false, func(path string, err error) error {
		unreadable.Add(1)
		logrus.WithField("path", path).WithError(err).Error("skipping container")
		return nil
	})

	start := time.Now()
	sum, err := x.Run(ctx, announce{Enumerator: en, p: p}, p.done)
	if err != nil {
		return fmt.Errorf("extraction aborted: %w", err)
	}
	p.summary(sum, int(unreadable.Load()), time.Since(start))

	if failed := sum.Failed + int(unreadable.Load()); failed > 0 {
		return fmt.Errorf("%d container(s) failed", failed)
	}
	return nil
}

// inputRoots resolves the input arguments against the input path prefix.
// Paths that do not exist are logged and counted in missing. With no
// arguments the prefix itself is the only root.
func inputRoots(prefix string, args []string) (roots []string, missing int, err error) {
	if len(args) == 0 {
		if prefix == "" {
			return nil, 0, errors.New("no input path given")
		}
		args = []string{""}
	}

	for _, arg := range args {
		path := arg
		if prefix != "" && !filepath.IsAbs(arg) {
			path = filepath.Join(prefix, arg)
		}
		if _, err := os.Stat(path); err != nil {
			logrus.WithField("path", path).WithError(err).Error("input is not a valid file or directory")
			missing++
			continue
		}
		roots = append(roots, path)
	}
	return roots, missing, nil
}

// newEnumerator builds one filesystem enumerator per root from cfg. With
// untyped, files are selected by pattern alone and need no numeric
// extension.
func newEnumerator(cfg *config.Config, roots []string, untyped bool, onError func(path string, err error) error) enum.Enumerator {
	enumerators := make([]enum.Enumerator, 0, len(roots))
	for _, root := range roots {
		enumerators = append(enumerators, enum.NewFilesystemEnumerator(enum.Config{
			Root:              root,
			FilePatterns:      cfg.FilePatternList(),
			DirectoryPatterns: cfg.DirectoryPatternList(),
			IncludeHidden:     cfg.IncludeHidden,
			IgnoreFile:        cfg.IgnoreFile,
			Untyped:           untyped,
			Archives:          cfg.Archives,
			MaxMemberSize:     maxArchiveMember,
			Jobs:              cfg.Jobs,
			OnError:           onError,
		}))
	}
	return enum.NewCombinedEnumerator(enumerators...)
}

// announce prints each container's name before it is handed on.
type announce struct {
	enum.Enumerator
	p *progress
}

func (a announce) Enumerate(ctx context.Context, callback enum.Callback) error {
	return a.Enumerator.Enumerate(ctx, func(ctx context.Context, c enum.Container) error {
		a.p.container(c.Name)
		return callback(ctx, c)
	})
}
