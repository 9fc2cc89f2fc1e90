package models

import "time"

// Configuration models

// Config holds relational database configuration
type Config struct {
	Provider string            // sqlite
	URI      string            // File path
	Options  map[string]string // Provider-specific options
}

// MongoConfig holds document store connection settings
type MongoConfig struct {
	Database   string
	Host       string
	Port       int
	Username   string
	Password   string
	AuthSource string        // Applied only when Username is set
	Timeout    time.Duration // Server selection and connect timeout
}
