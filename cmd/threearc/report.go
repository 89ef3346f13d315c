package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/oiutils/threearc/pkg/store"
	"github.com/oiutils/threearc/pkg/types"
)

var (
	reportManifest  string
	reportFormat    string
	reportColor     string
	reportContainer string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from an extraction manifest",
	Long:  "Read container runs and entry records from a manifest and print them",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportManifest, "manifest", "m", "threearc.db", "Path to the manifest database")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	reportCmd.Flags().StringVar(&reportContainer, "container", "", "Only report this container path")
}

// manifestReport is the JSON shape of a report.
type manifestReport struct {
	Containers []*types.ContainerRun `json:"containers"`
	Records    []*types.Record       `json:"records"`
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportManifest == store.MemoryPath {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportManifest); err != nil {
		return fmt.Errorf("manifest not found: %s", reportManifest)
	}

	s, err := store.New(store.Config{Path: reportManifest})
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	defer s.Close()

	containers, err := s.GetContainers()
	if err != nil {
		return fmt.Errorf("retrieving containers: %w", err)
	}
	records, err := s.GetRecords(reportContainer)
	if err != nil {
		return fmt.Errorf("retrieving records: %w", err)
	}
	if reportContainer != "" {
		containers = filterContainers(containers, reportContainer)
		if len(containers) == 0 {
			return fmt.Errorf("container not in manifest: %s", reportContainer)
		}
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(manifestReport{Containers: containers, Records: records})
	case "human":
		enabled, err := colorEnabled(reportColor)
		if err != nil {
			return err
		}
		outputReportHuman(cmd.OutOrStdout(), newStyles(enabled), containers, records)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

func filterContainers(runs []*types.ContainerRun, path string) []*types.ContainerRun {
	var out []*types.ContainerRun
	for _, run := range runs {
		if run.Path == path {
			out = append(out, run)
		}
	}
	return out
}

func outputReportHuman(out io.Writer, s *styles, containers []*types.ContainerRun, records []*types.Record) {
	byContainer := make(map[string][]*types.Record)
	for _, r := range records {
		byContainer[r.Container] = append(byContainer[r.Container], r)
	}

	var total struct{ entries, exported, skipped, failed int }
	for i, run := range containers {
		fmt.Fprintf(out, "%s (%s)\n",
			s.heading.Sprintf("Container %d/%d", i+1, len(containers)),
			s.status(run.Status))
		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Path:"), s.path.Sprint(run.Path))
		if run.Provenance != "" && run.Provenance != run.Path {
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Source:"), run.Provenance)
		}
		fmt.Fprintf(out, "%s %d  %s %s\n",
			s.heading.Sprint("Type:"), run.Type,
			s.heading.Sprint("Size:"), humanize.Bytes(uint64(run.Size)))
		fmt.Fprintf(out, "%s %d (%s exported, %s skipped)\n",
			s.heading.Sprint("Entries:"), run.Entries,
			s.exported.Sprint(run.Exported), s.skipped.Sprint(run.Skipped))
		if run.Error != "" {
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Error:"), s.failed.Sprint(run.Error))
		}

		for _, r := range byContainer[run.Path] {
			fmt.Fprintf(out, "  %s\n", formatRecordLine(r, s))
		}
		fmt.Fprintln(out)

		total.entries += run.Entries
		total.exported += run.Exported
		total.skipped += run.Skipped
		if run.Status == types.ContainerFailed {
			total.failed++
		}
	}

	fmt.Fprintf(out, "%s %d containers, %d entries, %s exported, %s skipped, %s failed\n",
		s.heading.Sprint("Summary:"), len(containers), total.entries,
		s.exported.Sprint(total.exported), s.skipped.Sprint(total.skipped),
		s.failed.Sprint(total.failed))
}

func formatRecordLine(r *types.Record, s *styles) string {
	dims := ""
	if r.HasDimensions {
		dims = fmt.Sprintf("%dx%d", r.Width, r.Height)
	}
	line := fmt.Sprintf("#%-4d %s %-11s %9s", r.Index, s.kind.Sprintf("%-4s", r.Kind), dims,
		humanize.Bytes(uint64(r.Length)))
	if r.Skipped {
		return line + "  " + s.skipped.Sprintf("skipped: %s", r.SkipReason)
	}
	return line + "  " + s.exported.Sprint("-> ") + r.Output
}
