// Package config loads the consolidator configuration.
//
// Values are resolved in order of increasing precedence:
//
//  1. Default()
//  2. config.yaml or configs/config.yaml (or the file named by TESOURARIA_CONFIG_FILE)
//  3. Environment variables, optionally seeded from a .env file
//
// Environment variables follow the TESOURARIA_<SECTION>_<FIELD> pattern:
//
//	TESOURARIA_BATCH_WORKERS=4
//	TESOURARIA_BATCH_PERIOD=31/01/2024
//	TESOURARIA_EXTRACTION_SHEET_NAME=Sheet0
//	TESOURARIA_TELEMETRY_METRICS_ADDR=:9090
//
// Directories in PathsConfig are resolved against the working directory by
// GetPaths.
package config
