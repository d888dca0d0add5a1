package port

import "context"

// DocumentArchive keeps copies of exported documents
type DocumentArchive interface {
	// Save stores content under key and returns where it landed
	Save(ctx context.Context, key string, content []byte, contentType string) (string, error)
}
