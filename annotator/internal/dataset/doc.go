// Package dataset reads and writes part tables.
//
// The format is chosen by file extension through ForPath:
//   - .csv: header row gives the columns; every cell is a string
//   - .jsonl / .ndjson: one JSON object per line
//   - .json: a single JSON array of objects
//
// JSON numbers are kept as json.Number so pass-through columns round-trip
// without float conversion. Column order is the order in which keys first
// appear. Write replaces the target atomically (temp file + rename).
package dataset
