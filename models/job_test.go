package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestJobStatusIsTerminal(t *testing.T) {
	tests := map[JobStatus]bool{
		JobStatusQueued:     false,
		JobStatusInProgress: false,
		JobStatusCompleted:  true,
		JobStatusFailed:     true,
		JobStatus(""):       false,
	}
	for status, want := range tests {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%q.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestJobResultJSONDurationInSeconds(t *testing.T) {
	result := JobResult{UUID: "u-1", Duration: 1500 * time.Millisecond, DurationSeconds: 1.5}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"duration_seconds":1.5`) {
		t.Fatalf("json = %s, want duration_seconds 1.5", data)
	}
	if strings.Contains(string(data), `"duration":`) {
		t.Fatalf("json = %s, nanosecond duration should not be published", data)
	}
}
