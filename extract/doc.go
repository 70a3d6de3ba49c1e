// Package extract turns input files into ordered text records.
//
// The file kind is chosen by extension (case-sensitive):
//
//   - .txt: one record per non-blank line, whitespace trimmed
//   - .csv: charset auto-detected, no header, each row's cells joined by a space
//   - .json: root must be an array; each element becomes its compact JSON text
//   - .xlsx: first worksheet, no header, same row rule as .csv
//
// Unknown extensions fail with core.ErrUnsupportedFormat before the file is
// opened. Open and parse failures wrap core.ErrRead.
package extract
