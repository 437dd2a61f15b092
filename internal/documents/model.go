package documents

import "time"

// Document is an uploaded text with its extracted content and optional narration.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	URL        string    `json:"url"`
	OwnerID    string    `json:"ownerId"`
	OwnerEmail string    `json:"ownerEmail"`
	CreatedAt  time.Time `json:"createdAt"`
	AudioRef   string    `json:"audioRef,omitempty"`
}

// NewDocument carries the caller-supplied fields of a document being created.
type NewDocument struct {
	Name       string
	Content    string
	URL        string
	OwnerID    string
	OwnerEmail string
}

// DocumentPatch lists the fields that may change after creation.
type DocumentPatch struct {
	AudioRef *string
}

func (p DocumentPatch) apply(doc *Document) bool {
	changed := false
	if p.AudioRef != nil && *p.AudioRef != doc.AudioRef {
		doc.AudioRef = *p.AudioRef
		changed = true
	}
	return changed
}
