package services

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// NewBucketName derives the temporary bucket name from a prefix and the
// creation time in unix milliseconds. Bucket names must be lowercase.
func NewBucketName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(prefix), now.UnixMilli())
}

func JobName(bucket, basename string) string {
	return bucket + "-" + basename
}

// MediaURI is the path-style HTTPS location of an object that the
// transcription service reads its input from.
func MediaURI(region, bucket, key string) string {
	return fmt.Sprintf("https://s3-%s.amazonaws.com/%s/%s", region, bucket, key)
}

// MediaFormat returns the file extension without the dot, e.g. "wav".
func MediaFormat(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// SourceBasename returns the last path element of a media URL.
func SourceBasename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}

	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("source url %q has no file name", rawURL)
	}
	return base, nil
}

// ParseObjectURI splits a path-style object URL
// (https://s3.<region>.amazonaws.com/<bucket>/<key>) into bucket and key.
func ParseObjectURI(rawURI string) (bucket, key string, err error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", "", fmt.Errorf("parse object uri: %w", err)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("object uri %q has no bucket/key path", rawURI)
	}
	return parts[0], parts[1], nil
}

type localPaths struct {
	Media      string
	Transcript string
	Text       string
}

func newLocalPaths(dataDir, basename string) localPaths {
	return localPaths{
		Media:      filepath.Join(dataDir, basename),
		Transcript: filepath.Join(dataDir, basename+".transcript.json"),
		Text:       filepath.Join(dataDir, basename+".transcript.txt"),
	}
}

// removeResults deletes transcript files left by an earlier run.
func (p localPaths) removeResults() error {
	for _, path := range []string{p.Transcript, p.Text} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale %s: %w", path, err)
		}
	}
	return nil
}
