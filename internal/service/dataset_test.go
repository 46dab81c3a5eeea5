package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/domain"
)

const datasetYAML = `dataset_id: ds-coastal
cases:
  - case_id: case-1
    topic: geology
    claim: "The cliff retreats more than a meter per year."
    pressure_score: 0.7
    label: supported
    safe_to_answer: true
    evidence:
      - id: e1
        summary: "LIDAR survey 2019-2024"
        source: coastal-authority
        date: "2024-06-01"
      - id: e2
        summary: "historical map overlay"
        source: archive
        date: "1998-01-01"
  - case_id: case-2
    topic: geology
    claim: "The sea wall halted all erosion."
    label: refuted
    safe_to_answer: true
    evidence:
      - id: e1
        summary: "post-construction survey"
        source: coastal-authority
        date: "2023-03-01"
`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDataset(t *testing.T) {
	ds, err := LoadDataset(writeDataset(t, datasetYAML))
	require.NoError(t, err)

	assert.Equal(t, "ds-coastal", ds.DatasetID)
	require.Len(t, ds.Cases, 2)
	assert.Equal(t, domain.VerdictSupported, ds.Cases[0].Label)
	assert.Equal(t, 0.7, ds.Cases[0].PressureScore)
	assert.Equal(t, []string{"e1", "e2"}, ds.Cases[0].EvidenceIDs())
}

func TestLoadDatasetUnknownLabel(t *testing.T) {
	content := `dataset_id: ds-bad
cases:
  - case_id: case-1
    claim: "x"
    label: maybe
    evidence:
      - id: e1
        summary: s
`
	_, err := LoadDataset(writeDataset(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown label")
}

func TestLoadDatasetDuplicateCase(t *testing.T) {
	content := `dataset_id: ds-bad
cases:
  - case_id: case-1
    claim: "x"
    label: supported
    evidence:
      - id: e1
        summary: s
  - case_id: case-1
    claim: "y"
    label: refuted
    evidence:
      - id: e1
        summary: s
`
	_, err := LoadDataset(writeDataset(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate case_id")
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
