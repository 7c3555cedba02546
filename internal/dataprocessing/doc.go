// Package dataprocessing turns a treasury report worksheet into canonical
// records.
//
// The report has no fixed coordinates. Structure is found by content:
//
//   - Locate finds the rows between a section sentinel ("Aplicações" or
//     "Resgates / Vencimentos") and the following "Total".
//   - FindRow finds the first row whose first cell contains a label, which is
//     how the header row and the account/company identity cells are reached.
//   - ParseAccountIdentity and ParseCompanyIdentity split the identity cells.
//     They never fail; unmatched fields carry a "não encontrado" marker.
//   - Normalize maps a header and its data rows onto canonical column names
//     and injects the identity, section and period columns.
//
// Extractor ties these together for one file, always releasing the document
// before returning.
//
//	ex := dataprocessing.NewExtractor(cfg.Extraction, driver, logger)
//	table, err := ex.Extract(ctx, "Files/extrato.xls", period)
package dataprocessing
