package config

import "time"

// Config holds all fixture configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Migrations MigrationsConfig `mapstructure:"migrations" validate:"required"`
	Log        LogConfig        `mapstructure:"log"        validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// URL is required unless an embedded server is requested.
	URL            string        `mapstructure:"url"             validate:"required_without=Embedded"`
	Schema         string        `mapstructure:"schema"          validate:"required,max=63"`
	MaxConns       int32         `mapstructure:"max_conns"       validate:"gte=1,lte=100"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`

	Embedded        bool   `mapstructure:"embedded"`
	EmbeddedPort    uint32 `mapstructure:"embedded_port"     validate:"omitempty,gt=1023,lt=65536"`
	EmbeddedDataDir string `mapstructure:"embedded_data_dir"`
}

// MigrationsConfig contains settings for the migration runner.
type MigrationsConfig struct {
	// Dir is resolved relative to the project root when not absolute.
	Dir       string `mapstructure:"dir"        validate:"required"`
	Target    string `mapstructure:"target"     validate:"required"`
	TableName string `mapstructure:"table_name" validate:"required,max=63"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}
