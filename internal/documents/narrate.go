package documents

import "context"

// Synthesizer renders text as an audio data URI.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// Narrator attaches synthesized audio to documents.
type Narrator struct {
	Docs   *Service
	Speech Synthesizer
}

// Narrate synthesizes the document content with voice and stores the result as its audioRef.
func (n *Narrator) Narrate(ctx context.Context, id, voice string) (Document, error) {
	doc, err := n.Docs.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	audio, err := n.Speech.Synthesize(ctx, doc.Content, voice)
	if err != nil {
		return Document{}, err
	}
	return n.Docs.Update(ctx, id, DocumentPatch{AudioRef: &audio})
}
