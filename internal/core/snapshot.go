package core

import (
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is the export format version written by this build.
const SnapshotVersion = 1

// Snapshot is the full export/import document.
type Snapshot struct {
	Version      int           `json:"version"`
	ExportedAt   time.Time     `json:"exportedAt"`
	Categories   []Category    `json:"categories"`
	Transactions []Transaction `json:"transactions"`
	Settings     *Settings     `json:"settings,omitempty"`
}

// ImportCounts reports how many rows were written and how many already existed.
type ImportCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ImportResult struct {
	Categories      ImportCounts `json:"categories"`
	Transactions    ImportCounts `json:"transactions"`
	SettingsApplied bool         `json:"settingsApplied"`
}

// Validate checks every row so a bad file is rejected before anything is written.
func (s Snapshot) Validate() error {
	v := &ValidationError{}
	if s.Version > SnapshotVersion {
		v.Add("version", fmt.Errorf("unsupported version %d", s.Version))
	}
	for i, c := range s.Categories {
		if err := c.Validate(); err != nil {
			v.Add(fmt.Sprintf("categories[%d]", i), err)
		}
	}
	for i, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			v.Add(fmt.Sprintf("transactions[%d]", i), err)
		}
	}
	if s.Settings != nil {
		if err := s.Settings.Validate(); err != nil {
			v.Add("settings", err)
		}
	}
	return v.OrNil()
}

// IsValidationError reports whether err carries field-level validation details.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
