package documents

import "github.com/dkravchenko/patienthub/internal/models"

// FilterByCategory returns the documents matching category, preserving
// order. CategoryAll passes every document through unchanged.
func FilterByCategory(docs []*models.Document, category models.Category) []*models.Document {
	if category == models.CategoryAll {
		return docs
	}

	out := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
