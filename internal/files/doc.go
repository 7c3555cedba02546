// Package files discovers report files in the input directory and performs
// the cleanup steps of a batch run.
//
// Discovery lists the input directory and tags each entry as accepted or
// skipped, so skipped entries can be reported in the run log. Manager deletes
// consumed sources and empties the output directory before a new run.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.WorkDir)
//	found, err := discovery.FindReports(paths.InputDir, ".xls")
//
//	manager := files.NewManager(logger)
//	removed, err := manager.ClearDirectory(paths.InputDir)
package files
