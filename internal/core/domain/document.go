package domain

import "time"

// Document is the normalised output unit produced by adapters and consumed
// by the indexing collaborator. The core does not parse or interpret
// content beyond passing it through sanitisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the full text content. Expected to have passed through
	// the sanitisation service before indexing.
	Content string

	// Source is the adapter kind that produced this document.
	Source string

	// SourceID is the document's identifier within its source system.
	SourceID string

	// URL is the original location, if any.
	URL string

	// Metadata carries source-specific annotation, preserved verbatim.
	Metadata map[string]any

	// MimeType is the document's media type.
	MimeType string

	// CreatedAt is when the document was created at the source.
	CreatedAt time.Time

	// ModifiedAt is when the document was last modified at the source.
	ModifiedAt time.Time

	// Attachments are binary companions to the document.
	Attachments []Attachment
}

// Attachment is a binary companion to a document. The core treats its
// data as opaque; text extraction is an external collaborator.
type Attachment struct {
	// ID is the attachment identifier within the source system.
	ID string

	// Filename is the original file name.
	Filename string

	// MimeType is the attachment's media type.
	MimeType string

	// Size is the attachment size in bytes.
	Size int64

	// URL is where the attachment's bytes can be fetched, if applicable.
	URL string
}
