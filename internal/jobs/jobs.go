package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxTries = 5

// a Job is the core representation of a unit of asynchronous work. It
// travels through the queue as JSON.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    JobStatus       `json:"status"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"maxTries"`
	RunAt     time.Time       `json:"runAt"`
	LastError *string         `json:"lastError,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// creation of a new pending job with defaults.
func NewJob(t JobType, payloadJSON []byte, runAt time.Time) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	now := time.Now().UTC()

	if runAt.IsZero() {
		runAt = now
	}

	j := Job{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payloadJSON,
		Status:    JobPending,
		Attempts:  0,
		MaxTries:  DefaultMaxTries,
		RunAt:     runAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return j, nil
}

// Build validates and encodes payload into a job that is due now.
func Build(t JobType, payload any) (Job, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return Job{}, err
	}

	b, err := EncodePayload(t, payload)
	if err != nil {
		return Job{}, err
	}

	return NewJob(t, b, time.Time{})
}

// Exhausted reports whether the job has used all of its tries.
func (j Job) Exhausted() bool {
	return j.Attempts >= j.MaxTries
}

func Marshal(j Job) ([]byte, error) {
	return json.Marshal(j)
}

func Unmarshal(b []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(b, &j); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	if !j.Type.IsValid() {
		return Job{}, ErrInvalidJobType
	}
	if !j.Status.IsValid() {
		return Job{}, ErrInvalidJobStatus
	}
	return j, nil
}
