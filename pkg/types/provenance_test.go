package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileProvenance(t *testing.T) {
	prov := FileProvenance{
		FilePath: "/path/to/ui.3",
	}

	assert.Equal(t, "file", prov.Kind())
	assert.Equal(t, "/path/to/ui.3", prov.Path())
}

func TestArchiveProvenance(t *testing.T) {
	prov := ArchiveProvenance{
		ArchivePath: "/downloads/assets.7z",
		MemberPath:  "data/ui.3",
	}

	assert.Equal(t, "archive", prov.Kind())
	assert.Equal(t, "/downloads/assets.7z:data/ui.3", prov.Path())
}
