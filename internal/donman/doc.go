// Package donman parses the legacy DONMAN member export format.
//
// A DONMAN export is delimited text (comma or tab, detected from the header
// row) with a fixed 20-column layout. This package owns everything that turns
// one line of that file into a validated member/membership pair:
//
//   - DetectDelimiter: tab vs comma, counted over the header line
//   - SplitLine: quote-aware field tokenizer (doubled quotes escape)
//   - ParseAddress: best-effort Australian address decomposition
//   - Layout.ParseRow: one row in, a ParsedRow out with every field error
//     collected (validation never stops at the first failure)
//
// Parsing never panics and enum/date failures never abort a row early; errors
// accumulate into ValidationError values carrying enough context (row number,
// DONMAN #, name, field, raw value) to locate the offending source line.
package donman
