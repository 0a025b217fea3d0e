package statistics

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chainjack/chainjack/internal/fileutil"
)

// Store persists statistics across process restarts as a JSON file.
// Writes are atomic so a crash mid-save never corrupts the history.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads persisted statistics. A missing file is a fresh start, not
// an error.
func (s *Store) Load() (Statistics, error) {
	var stats Statistics

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("read statistics: %w", err)
	}

	if err := json.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("decode statistics: %w", err)
	}
	if err := stats.Validate(); err != nil {
		return Statistics{}, fmt.Errorf("persisted statistics inconsistent: %w", err)
	}
	return stats, nil
}

// Save writes the statistics atomically.
func (s *Store) Save(stats Statistics) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	return nil
}
