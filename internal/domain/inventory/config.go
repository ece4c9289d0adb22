package inventory

// Config holds inventory domain configuration.
type Config struct {
	// DefaultWarehouseCode is used when the default warehouse has to be created.
	DefaultWarehouseCode string

	// DefaultWarehouseName is the display name of a created default warehouse.
	DefaultWarehouseName string

	// ExportMaxRows caps the number of movements written by ExportMovements.
	ExportMaxRows int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultWarehouseCode: "MAIN",
		DefaultWarehouseName: "Main Warehouse",
		ExportMaxRows:        50000,
	}
}

// Validate fills unset fields with defaults.
func (c *Config) Validate() error {
	if c.DefaultWarehouseCode == "" {
		c.DefaultWarehouseCode = "MAIN"
	}
	if c.DefaultWarehouseName == "" {
		c.DefaultWarehouseName = "Main Warehouse"
	}
	if c.ExportMaxRows <= 0 {
		c.ExportMaxRows = 50000
	}
	return nil
}
