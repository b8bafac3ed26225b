package config

const (
	defaultPort            = 8080
	defaultDBPath          = "data/recipes.db"
	defaultMediaRoot       = "data/media"
	defaultMediaURL        = "/media/"
	defaultTokenTTLMinutes = 24 * 60
	defaultBcryptCost      = 12
	defaultLogFormat       = "text"
	defaultLogLevel        = "info"
	defaultProjectConfig   = "recipe-api.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:      defaultPort,
			MediaRoot: defaultMediaRoot,
			MediaURL:  defaultMediaURL,
		},
		Database: Database{
			Path: defaultDBPath,
		},
		Auth: Auth{
			TokenTTLMinutes: defaultTokenTTLMinutes,
			BcryptCost:      defaultBcryptCost,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
