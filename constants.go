package main

// File paths
const (
	DEFAULT_CONFIG_FILE_PATH = "config.yaml"
	DEFAULT_ENV_FILE_PATH    = ".env"
)

// Environment variables overriding configuration.
const (
	ENV_PORT      = "PORT"
	ENV_LOG_LEVEL = "RECONCILER_LOG_LEVEL"
)
