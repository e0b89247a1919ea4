// Package corpus defines the document model and the loaders that acquire raw
// document text for the retrieval engine. Acquisition failures are handled
// here; the engine only ever sees documents that were read successfully.
package corpus

// Document is one raw text unit in the corpus. ID is assigned by insertion
// order and stays stable for the lifetime of one corpus snapshot.
type Document struct {
	ID   int    `json:"doc_id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Assign renumbers documents by their position so IDs always match insertion
// order regardless of how the slice was assembled.
func Assign(docs []Document) []Document {
	for i := range docs {
		docs[i].ID = i
	}
	return docs
}
