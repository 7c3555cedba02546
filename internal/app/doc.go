// Package app wires configuration, logging, telemetry and the batch
// components together for the command line.
//
// Consolidate runs one batch: it clears the run log, discovers the reports in
// the input directory, extracts them through the configured runner, writes the
// combined table to the output directory and empties the input directory.
// ExtractOne is the worker side of process isolation: it extracts a single
// report and writes the result to stdout as JSON.
//
// The package never calls os.Exit; errors are returned to main.
package app
