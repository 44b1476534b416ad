// Package document defines the document shape the engine consumes from
// external storage. Parsing and persistence live outside this module
// (spec.md section 1, "Out of scope").
package document

// Parsed is a single document handed to the engine. The engine treats
// Content as opaque text; it never interprets Format or Metadata.
type Parsed struct {
	Name      string         `json:"name"`
	Content   string         `json:"content"`
	Format    string         `json:"format"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CharCount int            `json:"char_count"`
}

// New builds a Parsed document, deriving CharCount from Content.
func New(name, content, format string, metadata map[string]any) Parsed {
	return Parsed{
		Name:      name,
		Content:   content,
		Format:    format,
		Metadata:  metadata,
		CharCount: len(content),
	}
}
