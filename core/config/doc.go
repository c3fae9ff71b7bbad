// Package config provides configuration management for the synchronizer.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file, with defaults declared as struct tags on the
// partial configurations.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (port, API key, upload limit)
//   - Database: MySQL connection details for the identity store
//   - Storage: S3/MinIO credentials for the run archive
//   - Catalog: leasing platform API endpoint and OAuth2 credentials
//   - Sync: engine behavior (retries, backoff, concurrency, gates)
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
