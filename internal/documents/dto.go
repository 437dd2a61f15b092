package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	URL        string    `json:"url"`
	OwnerID    string    `json:"ownerId"`
	OwnerEmail string    `json:"ownerEmail"`
	CreatedAt  time.Time `json:"createdAt"`
	AudioRef   string    `json:"audioRef,omitempty"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type narrateRequest struct {
	Voice string `json:"voice"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		Content:    doc.Content,
		URL:        doc.URL,
		OwnerID:    doc.OwnerID,
		OwnerEmail: doc.OwnerEmail,
		CreatedAt:  doc.CreatedAt,
		AudioRef:   doc.AudioRef,
	}
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	return out
}
