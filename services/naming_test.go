package services

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewBucketName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := NewBucketName("aws-transcribe-example", now); got != "aws-transcribe-example-1700000000123" {
		t.Fatalf("bucket = %q", got)
	}
	if got := NewBucketName("My-Project", now); got != "my-project-1700000000123" {
		t.Fatalf("bucket = %q, want lowercase prefix", got)
	}
}

func TestJobNameAndMediaURI(t *testing.T) {
	if got := JobName("b-1", "OSR_us_000_0010_8k.wav"); got != "b-1-OSR_us_000_0010_8k.wav" {
		t.Fatalf("job name = %q", got)
	}
	want := "https://s3-us-east-1.amazonaws.com/b-1/OSR_us_000_0010_8k.wav"
	if got := MediaURI("us-east-1", "b-1", "OSR_us_000_0010_8k.wav"); got != want {
		t.Fatalf("media uri = %q, want %q", got, want)
	}
}

func TestMediaFormat(t *testing.T) {
	tests := map[string]string{
		"sample.wav":   "wav",
		"sample.MP3":   "mp3",
		"a.b.flac":     "flac",
		"no-extension": "",
	}
	for name, want := range tests {
		if got := MediaFormat(name); got != want {
			t.Errorf("MediaFormat(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSourceBasename(t *testing.T) {
	got, err := SourceBasename("https://www.voiptroubleshooter.com/open_speech/american/OSR_us_000_0010_8k.wav?x=1")
	if err != nil {
		t.Fatalf("basename: %v", err)
	}
	if got != "OSR_us_000_0010_8k.wav" {
		t.Fatalf("basename = %q", got)
	}

	for _, raw := range []string{"https://example.com/", "https://example.com", "://bad"} {
		if _, err := SourceBasename(raw); err == nil {
			t.Errorf("SourceBasename(%q) expected error", raw)
		}
	}
}

func TestParseObjectURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{uri: "https://s3.us-east-1.amazonaws.com/bucket-1/job.json", bucket: "bucket-1", key: "job.json"},
		{uri: "https://s3-eu-west-1.amazonaws.com/bucket-1/out/job.json", bucket: "bucket-1", key: "out/job.json"},
		{uri: "https://s3.amazonaws.com/bucket-only", wantErr: true},
		{uri: "https://s3.amazonaws.com/", wantErr: true},
		{uri: "%zz", wantErr: true},
	}

	for _, tt := range tests {
		bucket, key, err := ParseObjectURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseObjectURI(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseObjectURI(%q): %v", tt.uri, err)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("ParseObjectURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, key, tt.bucket, tt.key)
		}
	}
}

func TestLocalPaths(t *testing.T) {
	p := newLocalPaths("data", "a.wav")
	if p.Media != filepath.Join("data", "a.wav") ||
		p.Transcript != filepath.Join("data", "a.wav.transcript.json") ||
		p.Text != filepath.Join("data", "a.wav.transcript.txt") {
		t.Fatalf("unexpected paths: %+v", p)
	}
}
