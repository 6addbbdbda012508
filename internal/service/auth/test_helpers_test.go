package auth

import (
	"github.com/mmaliks/tasker-api/internal/config"
)

// testAuthConfig is the single source of truth for auth config in tests.
func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
		BcryptCost:                  4,
	}
}
