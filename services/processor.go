package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/resoul/awstranscribe/config"
	"github.com/resoul/awstranscribe/models"
)

const (
	failureCleanupTimeout = 2 * time.Minute
	publishTimeout        = 10 * time.Second
)

// ResultPublisher receives the outcome of every handled job.
type ResultPublisher interface {
	Publish(ctx context.Context, result models.JobResult) error
}

type ProcessorOptions struct {
	DataDir             string
	BucketPrefix        string
	Region              string
	LanguageCode        string
	PollInterval        time.Duration
	PollTimeout         time.Duration
	KeepBucketOnFailure bool
}

func OptionsFromConfig(cfg *config.Config) ProcessorOptions {
	return ProcessorOptions{
		DataDir:             cfg.DataDir,
		BucketPrefix:        cfg.Storage.BucketPrefix,
		Region:              cfg.AWS.Region,
		LanguageCode:        cfg.Transcribe.LanguageCode,
		PollInterval:        cfg.Poll.Interval,
		PollTimeout:         cfg.Poll.Timeout,
		KeepBucketOnFailure: cfg.Storage.KeepBucketOnFailure,
	}
}

type Processor struct {
	fetcher     *Fetcher
	store       ObjectStore
	transcriber Transcriber
	metrics     *Metrics
	publisher   ResultPublisher
	opts        ProcessorOptions
	now         func() time.Time
}

func NewProcessor(fetcher *Fetcher, store ObjectStore, transcriber Transcriber, metrics *Metrics, opts ProcessorOptions) *Processor {
	return &Processor{
		fetcher:     fetcher,
		store:       store,
		transcriber: transcriber,
		metrics:     metrics,
		opts:        opts,
		now:         time.Now,
	}
}

// SetPublisher enables publishing of job results after HandleJob.
func (p *Processor) SetPublisher(pub ResultPublisher) {
	p.publisher = pub
}

// HandleJob runs one request with logging, metrics and result publishing.
func (p *Processor) HandleJob(ctx context.Context, job models.JobMessage) (*models.JobResult, error) {
	if job.UUID == "" {
		job.UUID = uuid.NewString()
	}

	log := logrus.WithFields(logrus.Fields{
		"job_uuid": job.UUID,
		"source":   job.SourceURL,
	})

	p.metrics.ActiveJobs.Inc()
	defer p.metrics.ActiveJobs.Dec()

	log.Info("Processing job started")

	result, err := p.Run(ctx, job)
	p.metrics.JobDuration.Observe(result.Duration.Seconds())

	if err != nil {
		p.metrics.RecordFailure(err)
		result.Error = err.Error()
		log.WithError(err).WithField("duration", result.Duration).Error("Job processing failed")
	} else {
		p.metrics.RecordSuccess()
		log.WithFields(logrus.Fields{
			"duration":  result.Duration,
			"text_path": result.TextPath,
		}).Info("Job processing completed")
	}

	if p.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		if pubErr := p.publisher.Publish(pubCtx, *result); pubErr != nil {
			log.WithError(pubErr).Warn("Failed to publish job result")
		}
		cancel()
	}

	return result, err
}

// Run executes the workflow: fetch, stage, submit, poll, retrieve, clean.
// The returned result is never nil and holds whatever was reached before a
// failure.
func (p *Processor) Run(ctx context.Context, job models.JobMessage) (*models.JobResult, error) {
	start := time.Now()
	result := &models.JobResult{UUID: job.UUID, SourceURL: job.SourceURL}

	err := p.process(ctx, job, result)
	result.Duration = time.Since(start)
	result.DurationSeconds = result.Duration.Seconds()
	return result, err
}

func (p *Processor) process(ctx context.Context, job models.JobMessage, result *models.JobResult) (retErr error) {
	log := logrus.WithField("job_uuid", job.UUID)

	basename, err := SourceBasename(job.SourceURL)
	if err != nil {
		return newJobError(ErrTypeDownload, job.UUID, "fetch", err)
	}
	paths := newLocalPaths(p.opts.DataDir, basename)
	if err := paths.removeResults(); err != nil {
		return newJobError(ErrTypeSystem, job.UUID, "prepare", err)
	}

	stepStart := time.Now()
	size, err := p.fetcher.Download(ctx, job.SourceURL, paths.Media)
	if err != nil {
		return newJobError(ErrTypeDownload, job.UUID, "fetch", err)
	}
	p.metrics.DownloadDuration.Observe(time.Since(stepStart).Seconds())
	p.metrics.MediaSizeBytes.Observe(float64(size))
	result.MediaPath = paths.Media
	log.WithFields(logrus.Fields{
		"path": paths.Media,
		"size": humanize.Bytes(uint64(size)),
	}).Info("Source media downloaded")

	bucket := NewBucketName(p.opts.BucketPrefix, p.now())
	if err := p.store.MakeBucket(ctx, bucket); err != nil {
		return newJobError(ErrTypeStorage, job.UUID, "create_bucket", err)
	}
	result.Bucket = bucket
	log = log.WithField("bucket", bucket)
	log.Debug("Temporary bucket created")

	defer func() {
		if retErr == nil {
			return
		}
		if p.opts.KeepBucketOnFailure {
			log.Warn("Keeping temporary bucket after failure")
			return
		}
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureCleanupTimeout)
		defer cancel()
		if _, err := CleanupBucket(cleanupCtx, p.store, bucket); err != nil {
			log.WithError(err).Warn("Failed to cleanup temporary bucket after failure")
			return
		}
		log.Info("Temporary bucket removed after failure")
	}()

	stepStart = time.Now()
	if err := p.store.UploadFile(ctx, bucket, basename, paths.Media, contentTypeFor(basename)); err != nil {
		return newJobError(ErrTypeStorage, job.UUID, "upload", err)
	}
	p.metrics.UploadDuration.Observe(time.Since(stepStart).Seconds())
	log.WithField("object", basename).Debug("Source media staged")

	language := job.LanguageCode
	if language == "" {
		language = p.opts.LanguageCode
	}
	descriptor := models.JobDescriptor{
		Name:         JobName(bucket, basename),
		LanguageCode: language,
		MediaURI:     MediaURI(p.opts.Region, bucket, basename),
		MediaFormat:  MediaFormat(basename),
		OutputBucket: bucket,
	}
	if err := p.transcriber.StartJob(ctx, descriptor); err != nil {
		return newJobError(ErrTypeTranscribe, job.UUID, "start_job", err)
	}
	result.JobName = descriptor.Name
	log = log.WithField("job_name", descriptor.Name)
	log.WithFields(logrus.Fields{
		"language":  descriptor.LanguageCode,
		"media_uri": descriptor.MediaURI,
		"format":    descriptor.MediaFormat,
	}).Info("Transcription job started")

	stepStart = time.Now()
	state, attempts, err := PollJob(ctx, p.transcriber, descriptor.Name, p.opts.PollInterval, p.opts.PollTimeout)
	result.PollAttempts = attempts
	if err != nil {
		return newJobError(ErrTypeTranscribe, job.UUID, "poll", err)
	}
	result.Status = state.Status
	p.metrics.PollDuration.Observe(time.Since(stepStart).Seconds())
	p.metrics.PollAttempts.Observe(float64(attempts))
	p.metrics.TerminalStatuses.WithLabelValues(string(state.Status)).Inc()
	log.WithFields(logrus.Fields{
		"status":   state.Status,
		"attempts": attempts,
	}).Info("Transcription job finished")

	if state.Status == models.JobStatusFailed {
		return newJobError(ErrTypeTranscribe, job.UUID, "poll", fmt.Errorf("%w: %s", ErrJobFailed, state.FailureReason))
	}

	text, err := p.retrieve(ctx, job.UUID, state.TranscriptFileURI, paths)
	if err != nil {
		return err
	}
	result.TranscriptPath = paths.Transcript
	result.TextPath = paths.Text
	result.Text = text

	stepStart = time.Now()
	removed, err := CleanupBucket(ctx, p.store, bucket)
	if err != nil {
		return newJobError(ErrTypeStorage, job.UUID, "cleanup", err)
	}
	p.metrics.CleanupDuration.Observe(time.Since(stepStart).Seconds())
	log.WithField("objects", removed).Info("Temporary bucket removed")

	return nil
}

// retrieve downloads the transcript document, stores it next to the media
// and writes its plain text form.
func (p *Processor) retrieve(ctx context.Context, jobUUID, transcriptURI string, paths localPaths) (string, error) {
	outBucket, key, err := ParseObjectURI(transcriptURI)
	if err != nil {
		return "", newJobError(ErrTypeTranscript, jobUUID, "retrieve", err)
	}

	if err := p.store.DownloadFile(ctx, outBucket, key, paths.Transcript); err != nil {
		return "", newJobError(ErrTypeStorage, jobUUID, "download_transcript", err)
	}

	data, err := os.ReadFile(paths.Transcript)
	if err != nil {
		return "", newJobError(ErrTypeSystem, jobUUID, "read_transcript", err)
	}
	p.metrics.TranscriptSizeBytes.Observe(float64(len(data)))

	doc, err := ParseTranscript(data)
	if err != nil {
		return "", newJobError(ErrTypeTranscript, jobUUID, "parse", err)
	}

	text := doc.Text()
	if err := os.WriteFile(paths.Text, []byte(text), 0o644); err != nil {
		return "", newJobError(ErrTypeSystem, jobUUID, "write_text", fmt.Errorf("write %s: %w", paths.Text, err))
	}

	logrus.WithFields(logrus.Fields{
		"job_uuid": jobUUID,
		"json":     paths.Transcript,
		"text":     paths.Text,
		"segments": len(doc.Results.Transcripts),
	}).Debug("Transcript retrieved")

	return text, nil
}
