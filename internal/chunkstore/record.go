package chunkstore

import (
	"fmt"

	"coderag/internal/chunker"
	"coderag/internal/store"
)

// Metadata keys written for every record.
const (
	KeyFilePath  = "file_path"
	KeyName      = "name"
	KeyKind      = "kind"
	KeyStartLine = "start_line"
	KeyEndLine   = "end_line"
	KeyLanguage  = "language"
)

// Record is a SourceUnit with its stable storage id.
type Record struct {
	ID string
	chunker.SourceUnit
}

// RecordID returns the id of the unit spanning lines start..end of path.
func RecordID(path string, start, end int) string {
	return fmt.Sprintf("%s:%d-%d", path, start, end)
}

// NewRecord wraps u with its id.
func NewRecord(u chunker.SourceUnit) Record {
	return Record{ID: RecordID(u.FilePath, u.StartLine, u.EndLine), SourceUnit: u}
}

// NewRecords wraps every unit in units.
func NewRecords(units []chunker.SourceUnit) []Record {
	records := make([]Record, len(units))
	for i, u := range units {
		records[i] = NewRecord(u)
	}
	return records
}

// Metadata returns the sanitized metadata stored alongside the record.
func (r Record) Metadata() store.Metadata {
	return store.Sanitize(map[string]any{
		KeyFilePath:  r.FilePath,
		KeyName:      r.Name,
		KeyKind:      r.Kind,
		KeyStartLine: r.StartLine,
		KeyEndLine:   r.EndLine,
		KeyLanguage:  r.Language,
	})
}
