package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/resoul/awstranscribe/models"
)

// Transcriber starts transcription jobs and reports their status.
type Transcriber interface {
	StartJob(ctx context.Context, job models.JobDescriptor) error
	GetJob(ctx context.Context, name string) (models.JobState, error)
}

type AWSTranscriber struct {
	client *transcribe.Client
}

func NewAWSTranscriber(awsCfg aws.Config) *AWSTranscriber {
	return &AWSTranscriber{client: transcribe.NewFromConfig(awsCfg)}
}

func (t *AWSTranscriber) StartJob(ctx context.Context, job models.JobDescriptor) error {
	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(job.Name),
		LanguageCode:         types.LanguageCode(job.LanguageCode),
		Media:                &types.Media{MediaFileUri: aws.String(job.MediaURI)},
		OutputBucketName:     aws.String(job.OutputBucket),
	}
	if job.MediaFormat != "" {
		input.MediaFormat = types.MediaFormat(job.MediaFormat)
	}

	if _, err := t.client.StartTranscriptionJob(ctx, input); err != nil {
		return fmt.Errorf("start transcription job failed (job=%s): %w", job.Name, err)
	}
	return nil
}

func (t *AWSTranscriber) GetJob(ctx context.Context, name string) (models.JobState, error) {
	out, err := t.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
	})
	if err != nil {
		return models.JobState{}, fmt.Errorf("get transcription job failed (job=%s): %w", name, err)
	}
	if out.TranscriptionJob == nil {
		return models.JobState{}, fmt.Errorf("get transcription job returned no job (job=%s)", name)
	}

	job := out.TranscriptionJob
	state := models.JobState{
		Name:          aws.ToString(job.TranscriptionJobName),
		Status:        models.JobStatus(job.TranscriptionJobStatus),
		FailureReason: aws.ToString(job.FailureReason),
	}
	if job.Transcript != nil {
		state.TranscriptFileURI = aws.ToString(job.Transcript.TranscriptFileUri)
	}
	return state, nil
}
