package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Sweep    SweepConfig    `mapstructure:"sweep"    validate:"required"`
	FCM      FCMConfig      `mapstructure:"fcm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"omitempty,gte=4,lte=31"`
}

// SweepConfig controls the deadline sweeper.
//
// ReminderOffsets are Go duration strings counted backwards from a task's
// deadline. The default set mirrors the mobile client's expectations
// (10s, 5m, 10m, 15m, 20m); note that a sub-minute offset is only reliably
// observable when Interval is shortened to match.
type SweepConfig struct {
	Interval        string   `mapstructure:"interval"         validate:"required"`
	ReminderOffsets []string `mapstructure:"reminder_offsets" validate:"required,min=1,dive,required"`
	Workers         int      `mapstructure:"workers"          validate:"required,gt=0"`
}

// FCMConfig contains the push-delivery settings. An empty ProjectID disables
// outbound pushes (notifications are logged and dropped).
type FCMConfig struct {
	ProjectID   string `mapstructure:"project_id"`
	Endpoint    string `mapstructure:"endpoint"`
	BearerToken string `mapstructure:"bearer_token"`
}
