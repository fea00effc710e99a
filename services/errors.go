package services

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeDownload   ErrorType = "download"
	ErrTypeStorage    ErrorType = "storage"
	ErrTypeTranscribe ErrorType = "transcribe"
	ErrTypeTranscript ErrorType = "transcript"
	ErrTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrTypeSystem     ErrorType = "system"
)

type JobError struct {
	Type    ErrorType
	JobUUID string
	Op      string
	Err     error
}

func (e *JobError) Error() string {
	if e.JobUUID != "" {
		return fmt.Sprintf("[%s] job=%s op=%s: %v", e.Type, e.JobUUID, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] op=%s: %v", e.Type, e.Op, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func newJobError(errType ErrorType, jobUUID, op string, err error) error {
	return &JobError{
		Type:    errType,
		JobUUID: jobUUID,
		Op:      op,
		Err:     err,
	}
}

// DownloadError is returned when the media server answers with anything but 200.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %q: statusCode == %d", e.URL, e.StatusCode)
}

// ErrJobFailed marks a transcription job that reached the FAILED status.
var ErrJobFailed = errors.New("transcription job failed")

// errorLabels extracts metric labels from err, falling back to system/unknown.
func errorLabels(err error) (ErrorType, string) {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr.Type, jobErr.Op
	}
	return ErrTypeSystem, "unknown"
}
