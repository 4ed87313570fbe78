package config

// DomainConfig holds the limits applied to timeline queries
type DomainConfig struct {
	// Query limits
	DefaultMaxElements int
	MaxElementsCeiling int
	DefaultDepth       int
	MaxDepth           int

	// Entity constraints
	MaxTitleLength int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DefaultMaxElements: 2000,
		MaxElementsCeiling: 10000,
		DefaultDepth:       -1,
		MaxDepth:           64,

		MaxTitleLength: 200,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter cap on a single pan/zoom round trip
	config.MaxElementsCeiling = 5000
	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MaxElementsCeiling = 100000
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// ClampMaxElements resolves a requested cap. Zero selects the default,
// negative means unbounded, anything else is limited by the ceiling.
func (c *DomainConfig) ClampMaxElements(requested int) int {
	switch {
	case requested == 0:
		return c.DefaultMaxElements
	case requested < 0:
		return 0
	case requested > c.MaxElementsCeiling:
		return c.MaxElementsCeiling
	default:
		return requested
	}
}
