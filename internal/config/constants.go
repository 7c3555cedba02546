package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "Consolidador Tesouraria"

	// EnvPrefix namespaces every environment variable, e.g. TESOURARIA_BATCH_WORKERS
	EnvPrefix = "TESOURARIA"

	// Extraction defaults
	DefaultSheetName   = "Sheet0"
	DefaultExtension   = ".xls"
	DefaultFirstColumn = "A"
	DefaultLastColumn  = "K"
	DefaultCooldown    = 1 * time.Second

	// Batch defaults
	DefaultAttempts = 5
	DefaultWorkers  = 2

	// Isolation modes for per-file extraction
	IsolationProcess   = "process"
	IsolationInProcess = "inprocess"

	// Output formats
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	// PeriodLayout is DD/MM/YYYY
	PeriodLayout = "02/01/2006"

	// TimestampLayout prefixes output and diagnostic file names
	TimestampLayout = "20060102150405"

	// OutputSuffix follows the timestamp in the batch output name
	OutputSuffix = "_output"
)
