package config

// SchemaVersion is written into the settings table on every startup.
const SchemaVersion = "1.0"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "~/.config/smoketrack",
			SQLiteFile: "smoketrack.db",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8742,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracking: TrackingConfig{
			CigarettesPerPack: 20,
			PricePerPack:      4.25,
			DailyLimit:        20,
		},
	}
}
