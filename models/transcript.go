package models

import "strings"

// TranscriptDocument is the JSON file the transcription service writes to
// the output bucket. Only the fields needed for plain text are decoded.
type TranscriptDocument struct {
	JobName   string            `json:"jobName"`
	AccountID string            `json:"accountId"`
	Status    string            `json:"status"`
	Results   TranscriptResults `json:"results"`
}

type TranscriptResults struct {
	Transcripts []TranscriptSegment `json:"transcripts"`
}

type TranscriptSegment struct {
	Transcript string `json:"transcript"`
}

// Text joins every transcript segment in document order, one per line.
func (d *TranscriptDocument) Text() string {
	parts := make([]string, 0, len(d.Results.Transcripts))
	for _, ts := range d.Results.Transcripts {
		parts = append(parts, ts.Transcript)
	}
	return strings.Join(parts, "\n")
}
