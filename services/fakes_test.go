package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/resoul/awstranscribe/models"
)

var errNoBucket = errors.New("no such bucket")

// memStore is an in-memory ObjectStore that records every call.
type memStore struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	calls   []string
	failOn  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		buckets: make(map[string]map[string][]byte),
		failOn:  make(map[string]error),
	}
}

func (s *memStore) record(op string) error {
	s.calls = append(s.calls, op)
	return s.failOn[op]
}

func (s *memStore) put(bucket, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		return errNoBucket
	}
	objects[key] = data
	return nil
}

func (s *memStore) MakeBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("MakeBucket"); err != nil {
		return err
	}
	if _, ok := s.buckets[bucket]; ok {
		return fmt.Errorf("bucket %s already exists", bucket)
	}
	s.buckets[bucket] = make(map[string][]byte)
	return nil
}

func (s *memStore) UploadFile(_ context.Context, bucket, object, localPath, _ string) error {
	s.mu.Lock()
	err := s.record("UploadFile")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	return s.put(bucket, object, data)
}

func (s *memStore) DownloadFile(_ context.Context, bucket, object, localPath string) error {
	s.mu.Lock()
	if err := s.record("DownloadFile"); err != nil {
		s.mu.Unlock()
		return err
	}
	objects, ok := s.buckets[bucket]
	if !ok {
		s.mu.Unlock()
		return errNoBucket
	}
	data, ok := objects[object]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no object %s/%s", bucket, object)
	}
	if err := prepareLocalFile(localPath); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *memStore) ListObjects(_ context.Context, bucket string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListObjects"); err != nil {
		return nil, err
	}
	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, errNoBucket
	}
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memStore) RemoveObjects(_ context.Context, bucket string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("RemoveObjects"); err != nil {
		return err
	}
	objects, ok := s.buckets[bucket]
	if !ok {
		return errNoBucket
	}
	for _, k := range keys {
		delete(objects, k)
	}
	return nil
}

func (s *memStore) RemoveBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("RemoveBucket"); err != nil {
		return err
	}
	objects, ok := s.buckets[bucket]
	if !ok {
		return errNoBucket
	}
	if len(objects) > 0 {
		return fmt.Errorf("bucket %s is not empty", bucket)
	}
	delete(s.buckets, bucket)
	return nil
}

func (s *memStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *memStore) bucketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// fakeTranscriber answers status queries from a scripted sequence and, when
// a job is started, writes a transcript document into the output bucket the
// way the real service does.
type fakeTranscriber struct {
	store         *memStore
	statuses      []models.JobStatus
	segments      []string
	failureReason string
	getErr        error

	started []models.JobDescriptor
	gets    int
}

func (t *fakeTranscriber) StartJob(_ context.Context, job models.JobDescriptor) error {
	t.started = append(t.started, job)
	if t.store == nil {
		return nil
	}

	doc := models.TranscriptDocument{JobName: job.Name, Status: string(models.JobStatusCompleted)}
	for _, s := range t.segments {
		doc.Results.Transcripts = append(doc.Results.Transcripts, models.TranscriptSegment{Transcript: s})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return t.store.put(job.OutputBucket, job.Name+".json", data)
}

func (t *fakeTranscriber) GetJob(_ context.Context, name string) (models.JobState, error) {
	if t.getErr != nil {
		return models.JobState{}, t.getErr
	}

	i := t.gets
	if i >= len(t.statuses) {
		i = len(t.statuses) - 1
	}
	t.gets++

	state := models.JobState{Name: name, Status: t.statuses[i]}
	switch state.Status {
	case models.JobStatusCompleted:
		bucket := ""
		if len(t.started) > 0 {
			bucket = t.started[len(t.started)-1].OutputBucket
		}
		state.TranscriptFileURI = fmt.Sprintf("https://s3.us-east-1.amazonaws.com/%s/%s.json", bucket, name)
	case models.JobStatusFailed:
		state.FailureReason = t.failureReason
	}
	return state, nil
}

type recordingPublisher struct {
	results []models.JobResult
	ctxErrs []error
}

func (p *recordingPublisher) Publish(ctx context.Context, result models.JobResult) error {
	p.results = append(p.results, result)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return nil
}
