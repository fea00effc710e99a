package services

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/resoul/awstranscribe/models"
)

func ParseTranscript(data []byte) (*models.TranscriptDocument, error) {
	var doc models.TranscriptDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &doc, nil
}
