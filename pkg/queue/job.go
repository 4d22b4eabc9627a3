package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Job is the envelope pushed onto a queue. Payload stays opaque until the
// registered handler decodes it.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// DecodePayload unmarshals the job payload into dest.
func (j Job) DecodePayload(dest any) error {
	if len(j.Payload) == 0 {
		return fmt.Errorf("job %s has no payload", j.ID)
	}
	if err := json.Unmarshal(j.Payload, dest); err != nil {
		return fmt.Errorf("decode payload for job %s: %w", j.ID, err)
	}
	return nil
}

func encodeJob(job Job) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return string(raw), nil
}

func decodeJob(raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

// record is what lands on the capped completed/failed lists for inspection.
type record struct {
	Job        Job       `json:"job"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

func encodeRecord(rec record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record for job %s: %w", rec.Job.ID, err)
	}
	return string(raw), nil
}
