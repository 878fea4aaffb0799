package models

import (
	"strings"
	"time"
)

// Category classifies an uploaded document. It is inferred exactly once at
// upload time from the MIME type and never re-derived afterward.
type Category string

const (
	CategoryPhoto        Category = "photo"
	CategoryReport       Category = "report"
	CategoryPrescription Category = "prescription"
	CategoryXRay         Category = "xray"
	CategoryMRI          Category = "mri"
	CategoryOther        Category = "other"
)

// CategoryAll is the filter value that passes every document through.
// It is not a storable category.
const CategoryAll Category = "all"

// Valid reports whether c is one of the storable categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPhoto, CategoryReport, CategoryPrescription, CategoryXRay, CategoryMRI, CategoryOther:
		return true
	}
	return false
}

// InferCategory classifies a MIME type: image/* maps to photo,
// application/pdf to report, everything else to other.
func InferCategory(mimeType string) Category {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryPhoto
	case mimeType == "application/pdf":
		return CategoryReport
	default:
		return CategoryOther
	}
}

// Document is a stored file plus its descriptive metadata, owned by one
// Identity. StorageKey locates the object in the storage backend; FileURL
// is the resolved retrievable reference recorded at upload time.
type Document struct {
	ID          string
	OwnerID     string
	FileName    string
	MimeType    string
	SizeBytes   int64
	StorageKey  string
	FileURL     string
	Category    Category
	Description string
	UploadedAt  time.Time
}
