package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/resoul/awstranscribe/models"
)

// PollJob queries the job status every interval until it is terminal. It
// returns the terminal state and the number of status queries made. The
// first query happens immediately, and there is no wait after a terminal
// answer. A zero timeout polls until ctx is done.
func PollJob(ctx context.Context, t Transcriber, name string, interval, timeout time.Duration) (models.JobState, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	attempts := 0
	for {
		attempts++
		state, err := t.GetJob(ctx, name)
		if err != nil {
			return models.JobState{}, attempts, err
		}

		logrus.WithFields(logrus.Fields{
			"job_name": name,
			"status":   state.Status,
			"attempt":  attempts,
		}).Debug("Polled transcription job")

		if state.Status.IsTerminal() {
			return state, attempts, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return state, attempts, fmt.Errorf("poll job %s (last status %s): %w", name, state.Status, ctx.Err())
		case <-timer.C:
		}
	}
}
