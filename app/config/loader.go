package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of spreadsheet seed configurations
type Loader struct {
	sheetsDir string
}

func NewLoader(sheetsDir string) *Loader {
	return &Loader{sheetsDir: sheetsDir}
}

// LoadAll loads all YAML seed files from the sheets directory. A missing
// directory is not an error; seeds are optional.
func (l *Loader) LoadAll() (map[string]*SheetConfig, error) {
	configs := make(map[string]*SheetConfig)

	if _, err := os.Stat(l.sheetsDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.sheetsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.sheetsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs[file] = config
	}

	return configs, nil
}

func (l *Loader) loadFile(path string) (*SheetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SheetConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	return &config, nil
}

func (l *Loader) setDefaults(config *SheetConfig) {
	if config.Settings.SyncInterval == 0 {
		config.Settings.SyncInterval = 60 // minutes
	}
}

func (l *Loader) validate(config *SheetConfig) error {
	if config.Sheet.Name == "" {
		return fmt.Errorf("sheet name is required")
	}
	if config.Sheet.URL == "" {
		return fmt.Errorf("sheet URL is required")
	}
	if config.Settings.SyncInterval < 0 {
		return fmt.Errorf("sync interval must be non-negative")
	}

	return nil
}
