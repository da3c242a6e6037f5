package logger

// LoggingConfig is the "logging" section of config.yaml.
//
//	logging:
//	  default_level: info
//	  console: {enabled: true, level: info}
//	  file: {enabled: true, path: logs/listingguard.log, level: info}
//	  modules:
//	    api: {file: logs/access.log}
//	    datastore: {level: debug}
type LoggingConfig struct {
	Timezone     string                  `yaml:"timezone" json:"timezone" mapstructure:"timezone"` // "Local", "UTC" or an IANA name
	DefaultLevel string                  `yaml:"default_level" json:"default_level" mapstructure:"default_level"`
	Console      ConsoleOutput           `yaml:"console" json:"console" mapstructure:"console"`
	File         FileOutput              `yaml:"file" json:"file" mapstructure:"file"`
	Modules      map[string]ModuleConfig `yaml:"modules" json:"modules" mapstructure:"modules"`
}

// ConsoleOutput writes text without timestamps; journald or Docker add them.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" json:"level" mapstructure:"level"`
}

// FileOutput writes JSON records with RFC3339 timestamps.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" json:"path" mapstructure:"path"`
	Level   string `yaml:"level" json:"level" mapstructure:"level"`
}

// ModuleConfig overrides the level of one module and optionally moves it to its
// own JSON file. A module with a file leaves the main outputs, unless ConsoleAlso
// keeps it on the console. Modules naming the same file share one writer.
type ModuleConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	File        string `yaml:"file" json:"file" mapstructure:"file"`
	ConsoleAlso bool   `yaml:"console_also" json:"console_also" mapstructure:"console_also"`
}

// Defaults shared with conf/defaults.go.
const (
	DefaultLogLevel       = "info"
	DefaultLogPath        = "logs/listingguard.log"
	DefaultConsoleEnabled = true
	DefaultFileEnabled    = false
)

// orDefault returns value, or fallback when value is unset
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
