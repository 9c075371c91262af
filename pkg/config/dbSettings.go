package config

// DbSettings holds configuration for the relational store backing the
// outbox and order tables.
type DbSettings struct {
	Type   string `mapstructure:"type" validate:"required,oneof=postgres spanner mongo"`
	DSN    string `mapstructure:"dsn"`    // postgres
	URI    string `mapstructure:"uri"`    // spanner database path or mongo URI
	DBName string `mapstructure:"dbname"` // mongo only
}
