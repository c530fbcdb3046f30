package config

// SheetConfig is a seed definition for one spreadsheet lead source, loaded
// from a YAML file and upserted into the store at startup.
type SheetConfig struct {
	Sheet    SheetInfo     `yaml:"sheet"`
	Settings SheetSettings `yaml:"settings"`
}

type SheetInfo struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type SheetSettings struct {
	Active       bool `yaml:"active"`
	AutoSync     bool `yaml:"auto_sync"`
	SyncInterval int  `yaml:"sync_interval"` // minutes
}
