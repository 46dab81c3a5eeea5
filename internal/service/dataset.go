package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tribunal/internal/domain"
)

// Dataset is a loaded, validated case collection.
type Dataset struct {
	DatasetID string
	Cases     []domain.Case
}

type datasetFile struct {
	DatasetID string      `yaml:"dataset_id"`
	Cases     []caseEntry `yaml:"cases"`
}

type caseEntry struct {
	CaseID        string          `yaml:"case_id"`
	Topic         string          `yaml:"topic"`
	Claim         string          `yaml:"claim"`
	PressureScore float64         `yaml:"pressure_score"`
	Label         string          `yaml:"label"`
	SafeToAnswer  bool            `yaml:"safe_to_answer"`
	Evidence      []evidenceEntry `yaml:"evidence"`
}

type evidenceEntry struct {
	ID      string `yaml:"id"`
	Summary string `yaml:"summary"`
	Source  string `yaml:"source"`
	Date    string `yaml:"date"`
}

// LoadDataset reads and validates a YAML case file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	var file datasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	if file.DatasetID == "" {
		return nil, fmt.Errorf("dataset: %s: missing dataset_id", path)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("dataset: %s: no cases", path)
	}

	ds := &Dataset{DatasetID: file.DatasetID}
	seen := make(map[string]bool, len(file.Cases))
	for i, entry := range file.Cases {
		cas, err := entry.toCase()
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: case %d: %w", path, i, err)
		}
		if seen[cas.CaseID] {
			return nil, fmt.Errorf("dataset: %s: duplicate case_id %q", path, cas.CaseID)
		}
		seen[cas.CaseID] = true
		ds.Cases = append(ds.Cases, cas)
	}
	return ds, nil
}

func (e caseEntry) toCase() (domain.Case, error) {
	if e.CaseID == "" {
		return domain.Case{}, fmt.Errorf("missing case_id")
	}
	if e.Claim == "" {
		return domain.Case{}, fmt.Errorf("missing claim")
	}
	label := domain.Verdict(e.Label)
	if !domain.KnownVerdict(label) {
		return domain.Case{}, fmt.Errorf("unknown label %q", e.Label)
	}
	if len(e.Evidence) == 0 {
		return domain.Case{}, fmt.Errorf("no evidence packets")
	}

	cas := domain.Case{
		CaseID:        e.CaseID,
		Topic:         e.Topic,
		Claim:         e.Claim,
		PressureScore: e.PressureScore,
		Label:         label,
		SafeToAnswer:  e.SafeToAnswer,
	}
	ids := make(map[string]bool, len(e.Evidence))
	for _, ev := range e.Evidence {
		if ev.ID == "" {
			return domain.Case{}, fmt.Errorf("evidence packet missing id")
		}
		if ids[ev.ID] {
			return domain.Case{}, fmt.Errorf("duplicate evidence id %q", ev.ID)
		}
		ids[ev.ID] = true
		cas.EvidencePackets = append(cas.EvidencePackets, domain.EvidencePacket{
			ID:      ev.ID,
			Summary: ev.Summary,
			Source:  ev.Source,
			Date:    ev.Date,
		})
	}
	return cas, nil
}
