package config

// AppConfig holds the application configuration
type AppConfig struct {
	DBURL        string
	RedisAddress string
	BearerToken  string
	AIServiceURL string
}

// GetBearerToken returns the BearerToken from the config
func (c *AppConfig) GetBearerToken() string {
	return c.BearerToken
}

// GetAIServiceURL returns the advisory service base URL from the config
func (c *AppConfig) GetAIServiceURL() string {
	return c.AIServiceURL
}
