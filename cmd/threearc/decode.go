package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oiutils/threearc/pkg/config"
	"github.com/oiutils/threearc/pkg/enum"
	"github.com/oiutils/threearc/pkg/extract"
	"github.com/oiutils/threearc/pkg/respdecode"
)

const defaultResponsePatterns = "*.txt"

var (
	decodeOutput       string
	decodeInputPath    string
	decodeFilePatterns string
	decodePreserve     bool
	decodePassword     string
	decodePrettify     bool
	decodeCRC          bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode <path>...",
	Short: "Decode captured server responses into JSON documents",
	Long: `Decode captured HTTP server responses whose body is a base64 string
holding an XOR-obfuscated JSON document.

Each response is written as <stem>.json. When no password is set by flag,
config file or $` + config.PasswordEnv + `, it is read from the terminal.`,
	RunE: runDecode,
}

func init() {
	addDecodeFlags(decodeCmd)
}

func addDecodeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&decodeOutput, "output", "o", config.DefaultOutputPath, "Output directory (empty writes next to each response)")
	f.StringVarP(&decodeInputPath, "input-path", "i", "", "Directory prepended to relative input paths")
	f.StringVarP(&decodeFilePatterns, "file-patterns", "f", defaultResponsePatterns, "Response file patterns, separated by |")
	f.BoolVarP(&decodePreserve, "preserve", "s", true, "Keep the input directory structure below the output directory")
	f.StringVarP(&decodePassword, "password", "p", "", "Key of the obfuscated documents")
	f.BoolVar(&decodePrettify, "prettify", true, "Re-indent the documents")
	f.BoolVar(&decodeCRC, "crc", false, "Verify the checksum of each document")
}

func applyDecodeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	// Container patterns never apply to responses.
	cfg.FilePatterns = decodeFilePatterns
	if f.Changed("output") {
		cfg.OutputPath = decodeOutput
	}
	if f.Changed("input-path") {
		cfg.InputPath = decodeInputPath
	}
	if f.Changed("preserve") {
		cfg.PreserveDirectoryStructure = decodePreserve
	}
	if f.Changed("password") {
		cfg.Password = decodePassword
	}
	if f.Changed("prettify") {
		cfg.Prettify = decodePrettify
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDecodeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Password == "" {
		if cfg.Password, err = promptPassword(cmd); err != nil {
			return err
		}
	}

	opts := respdecode.Options{
		Key:       []byte(cfg.Password),
		Prettify:  cfg.Prettify,
		VerifyCRC: decodeCRC,
	}
	sink := cfg.Sink()

	roots, missing, err := inputRoots(cfg.InputPath, args)
	if err != nil {
		return err
	}

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var decoded, failed atomic.Int64
	failed.Add(int64(missing))
	onError := func(path string, err error) error {
		failed.Add(1)
		logrus.WithField("path", path).WithError(err).Error("skipping response")
		return nil
	}

	p := &progress{out: cmd.OutOrStdout(), level: verbosity(), s: newStyles(false)}
	en := newEnumerator(cfg, roots, true, onError)
	err = en.Enumerate(ctx, func(ctx context.Context, c enum.Container) error {
		path, err := respdecode.DecodeTo(sink, extract.Input{
			Name:       c.Name,
			Root:       c.Root,
			Provenance: c.Provenance,
			Type:       c.Type,
			Source:     c.Source,
			Size:       c.Size,
		}, opts)
		if err != nil {
			failed.Add(1)
			logrus.WithField("path", c.Name).WithError(err).Error("decoding failed")
			return nil
		}
		decoded.Add(1)
		if p.level >= 3 {
			p.printf("Decoded %s -> %s\n", c.Name, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("decoding aborted: %w", err)
	}

	if p.level >= 3 {
		p.printf("Done: %d decoded, %d failed\n", decoded.Load(), failed.Load())
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d response(s) failed", n)
	}
	return nil
}

// promptPassword reads the password from the terminal without echo.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", respdecode.ErrKeyMissing
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", respdecode.ErrKeyMissing
	}
	return string(pw), nil
}
