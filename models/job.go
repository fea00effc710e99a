package models

import "time"

// JobMessage is a transcription request, either built from configuration in
// once mode or consumed from the request queue in worker mode.
type JobMessage struct {
	UUID         string `json:"uuid"`
	SourceURL    string `json:"source_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether polling should stop at this status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobDescriptor is everything the transcription service needs to start a job.
type JobDescriptor struct {
	Name         string
	LanguageCode string
	MediaURI     string
	MediaFormat  string
	OutputBucket string
}

// JobState is one answer to a job status query.
type JobState struct {
	Name              string
	Status            JobStatus
	TranscriptFileURI string
	FailureReason     string
}

// JobResult is the outcome of one run. Duration is published in seconds.
type JobResult struct {
	UUID            string        `json:"uuid"`
	SourceURL       string        `json:"source_url"`
	Bucket          string        `json:"bucket,omitempty"`
	JobName         string        `json:"job_name,omitempty"`
	Status          JobStatus     `json:"status,omitempty"`
	MediaPath       string        `json:"media_path,omitempty"`
	TranscriptPath  string        `json:"transcript_path,omitempty"`
	TextPath        string        `json:"text_path,omitempty"`
	Text            string        `json:"text,omitempty"`
	PollAttempts    int           `json:"poll_attempts,omitempty"`
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`
	Error           string        `json:"error,omitempty"`
}
