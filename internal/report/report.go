// Package report writes YAML run reports for catalog updates.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig describes the run a load report belongs to.
type LoadConfig struct {
	Catalog   string `yaml:"catalog"`
	Source    string `yaml:"source"`
	Timestamp string `yaml:"timestamp"`
}

// LoadResult describes one processed dataset.
type LoadResult struct {
	DatasetID      string   `yaml:"dataset_id"`
	DatasetVersion string   `yaml:"dataset_version"`
	Name           string   `yaml:"name,omitempty"`
	Fields         []string `yaml:"fields,omitempty"`
	Publications   int      `yaml:"publications,omitempty"`
	Files          int      `yaml:"files"`
	Error          string   `yaml:"error,omitempty"`
}

// LoadReport is the complete report of one load run.
type LoadReport struct {
	Config  LoadConfig   `yaml:"config"`
	Results []LoadResult `yaml:"results"`
}

// Save writes the report to a timestamped YAML file under dir and
// returns the file's path.
func Save(dir string, config LoadConfig, results []LoadResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	config.Timestamp = timestamp

	data, err := yaml.Marshal(&LoadReport{Config: config, Results: results})
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("load-%s.yaml", timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}
