// Package config loads extraction settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/oiutils/threearc/pkg/extract"
	"github.com/oiutils/threearc/pkg/policy"
	"github.com/oiutils/threearc/pkg/sniff"
)

// PasswordEnv names the environment variable consulted for the cipher key
// when neither a flag nor the config file sets one.
const PasswordEnv = "THREEARC_PASSWORD"

// Defaults applied to unset fields.
const (
	DefaultFilePatterns      = "*.1|*.2|*.3|*.4|*.5|*.6|*.7|*.8"
	DefaultDirectoryPatterns = "*"
	DefaultOutputPath        = "out"
	DefaultIgnoreFile        = ".threearcignore"
)

// Config holds every setting of an extraction run.
type Config struct {
	InputPath                  string           `yaml:"input_path"`
	OutputPath                 string           `yaml:"output_path"`
	FilePatterns               string           `yaml:"file_patterns"`
	DirectoryPatterns          string           `yaml:"directory_patterns"`
	PreserveDirectoryStructure bool             `yaml:"preserve_directory_structure"`
	ExportUnknownData          bool             `yaml:"export_unknown_data"`
	ExportSinglePixelImage     bool             `yaml:"export_single_pixel_image"`
	ExcludeImageSizes          string           `yaml:"exclude_image_sizes"`
	Password                   string           `yaml:"password"`
	Prettify                   bool             `yaml:"prettify"`
	JFIFPermissive             bool             `yaml:"jfif_permissive"`
	SniffOrders                map[int][]string `yaml:"sniff_orders"`
	Jobs                       int              `yaml:"jobs"`
	Manifest                   string           `yaml:"manifest"`
	Archives                   bool             `yaml:"archives"`
	IncludeHidden              bool             `yaml:"include_hidden"`
	IgnoreFile                 string           `yaml:"ignore_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		OutputPath:                 DefaultOutputPath,
		FilePatterns:               DefaultFilePatterns,
		DirectoryPatterns:          DefaultDirectoryPatterns,
		PreserveDirectoryStructure: true,
		ExcludeImageSizes:          policy.FormatSizes(policy.DefaultExcludedSizes),
		Prettify:                   true,
		Jobs:                       1,
		IgnoreFile:                 DefaultIgnoreFile,
	}
}

// Load reads a YAML config file on top of the defaults. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills the password from the environment when it is unset.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if c.Password != "" {
		return
	}
	if v, ok := lookup(PasswordEnv); ok {
		c.Password = v
	}
}

// Validate checks patterns, sizes, sniff orders and the job count.
func (c *Config) Validate() error {
	var errs []error

	for _, p := range c.FilePatternList() {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid file pattern %q", p))
		}
	}
	for _, p := range c.DirectoryPatternList() {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid directory pattern %q", p))
		}
	}
	if len(c.FilePatternList()) == 0 {
		errs = append(errs, errors.New("at least one file pattern is required"))
	}
	if _, err := c.ExcludedSizes(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Orders(); err != nil {
		errs = append(errs, err)
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}

	return errors.Join(errs...)
}

// FilePatternList splits FilePatterns on "|".
func (c *Config) FilePatternList() []string {
	return splitPatterns(c.FilePatterns)
}

// DirectoryPatternList splits DirectoryPatterns on "|".
func (c *Config) DirectoryPatternList() []string {
	return splitPatterns(c.DirectoryPatterns)
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExcludedSizes parses ExcludeImageSizes.
func (c *Config) ExcludedSizes() ([]policy.Size, error) {
	sizes, err := policy.ParseSizes(c.ExcludeImageSizes)
	if err != nil {
		return nil, fmt.Errorf("exclude_image_sizes: %w", err)
	}
	return sizes, nil
}

// Orders parses SniffOrders.
func (c *Config) Orders() (sniff.Orders, error) {
	if len(c.SniffOrders) == 0 {
		return nil, nil
	}
	keys := make([]int, 0, len(c.SniffOrders))
	for t := range c.SniffOrders {
		keys = append(keys, t)
	}
	sort.Ints(keys)

	orders := make(sniff.Orders, len(keys))
	for _, t := range keys {
		order, err := sniff.ParseOrder(c.SniffOrders[t])
		if err != nil {
			return nil, fmt.Errorf("sniff_orders[%d]: %w", t, err)
		}
		orders[t] = order
	}
	return orders, nil
}

// Policy returns the export policy.
func (c *Config) Policy() (policy.Policy, error) {
	sizes, err := c.ExcludedSizes()
	if err != nil {
		return policy.Policy{}, err
	}
	return policy.Policy{
		ExportUnknownData:      c.ExportUnknownData,
		ExportSinglePixelImage: c.ExportSinglePixelImage,
		ExcludedSizes:          sizes,
	}, nil
}

// Extract returns the extractor configuration.
func (c *Config) Extract() (extract.Config, error) {
	p, err := c.Policy()
	if err != nil {
		return extract.Config{}, err
	}
	orders, err := c.Orders()
	if err != nil {
		return extract.Config{}, err
	}

	var key []byte
	if c.Password != "" {
		key = []byte(c.Password)
	}
	return extract.Config{
		Key:      key,
		Orders:   orders,
		JFIF:     sniff.JFIFOptions{AllowNonAPP0: c.JFIFPermissive},
		Policy:   p,
		Prettify: c.Prettify,
	}, nil
}

// Sink returns the output sink.
func (c *Config) Sink() extract.DirSink {
	return extract.DirSink{
		OutputPath:        c.OutputPath,
		PreserveStructure: c.PreserveDirectoryStructure,
	}
}
