package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oiutils/threearc/pkg/store"
	"github.com/oiutils/threearc/pkg/types"
)

// newMergeCmd creates a fresh merge command for testing
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:  "merge <source1.db> <source2.db> [source3.db...]",
		Args: cobra.MinimumNArgs(2),
		RunE: runMerge,
	}
	cmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output manifest path")
	return cmd
}

func TestMergeCmd_RequiresMinimumArgs(t *testing.T) {
	cmd := newMergeCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg")

	cmd = newMergeCmd()
	cmd.SetArgs([]string{"source1.db"})
	err = cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg")
}

func writeSource(t *testing.T, path, container string) {
	t.Helper()
	s, err := store.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.AddContainer(&types.ContainerRun{
		Path: container, Type: 3, Entries: 1, Exported: 1, Status: types.ContainerOK,
	}))
	require.NoError(t, s.AddRecord(&types.Record{
		Container: container, ContainerType: 3, Index: 0, Total: 1, Kind: types.KindMP3,
	}))
	require.NoError(t, s.Close())
}

func TestMergeCmd_MergesTwoManifests(t *testing.T) {
	tmpDir := t.TempDir()
	source1Path := filepath.Join(tmpDir, "source1.db")
	source2Path := filepath.Join(tmpDir, "source2.db")
	writeSource(t, source1Path, "a/sound.1")
	writeSource(t, source2Path, "b/sound.1")

	destPath := filepath.Join(tmpDir, "merged.db")
	var buf bytes.Buffer
	cmd := newMergeCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{source1Path, source2Path, "--output", destPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Merge complete")
	assert.Contains(t, output, "Sources processed: 2")
	assert.Contains(t, output, "Containers merged: 2")
	assert.Contains(t, output, "Records merged: 2")

	merged, err := store.NewSQLite(destPath)
	require.NoError(t, err)
	defer merged.Close()

	runs, err := merged.GetContainers()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestMergeCmd_FailsWithInvalidSource(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "merged.db")

	cmd := newMergeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/source1.db", "/nonexistent/source2.db", "--output", destPath})

	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "merge failed")
}
