// Package exporter writes the consolidated batch table to disk.
//
// XLSXWriter is the default writer and keeps numeric cells numeric.
// CSVWriter writes UTF-8 with a BOM so Excel opens accented column names
// correctly. Both satisfy TableWriter; NewTableWriter picks one by format.
package exporter
