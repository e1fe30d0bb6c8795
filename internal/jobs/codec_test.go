package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode_AssetStatusChanged(t *testing.T) {
	payload := AssetStatusChangedPayload{
		AssetID: "65f1c0ffee0000000000abcd",
		Email:   "a@x.com",
		Status:  "approved",
	}

	b, err := EncodePayload(JobAssetStatusChanged, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	j, err := NewJob(JobAssetStatusChanged, b, time.Time{})
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(AssetStatusChangedPayload)
	if !ok {
		t.Fatalf("expected AssetStatusChangedPayload, got %T", decoded)
	}

	if p.AssetID != payload.AssetID || p.Status != payload.Status {
		t.Fatalf("payload did not survive the round trip: %+v", p)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobAssetStatusChanged, PaymentRecordedPayload{
		PaymentID: "p1",
		Email:     "a@x.com",
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err != ErrPayloadTypeMismatch {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestValidatePayload_RequiredIDs(t *testing.T) {
	err := ValidatePayload(JobPaymentRecorded, PaymentRecordedPayload{Email: "a@x.com"})
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}

func TestBuild_ProducesQueueableJob(t *testing.T) {
	j, err := Build(JobPaymentRecorded, &PaymentRecordedPayload{PaymentID: "p1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if j.Status != JobPending || j.MaxTries != DefaultMaxTries || j.RunAt.IsZero() {
		t.Fatalf("unexpected defaults: %+v", j)
	}

	raw, err := Marshal(j)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	back, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if back.ID != j.ID || string(back.Payload) != string(j.Payload) {
		t.Fatalf("job changed in transit: %+v", back)
	}
}

func TestUnmarshal_RejectsUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"id":"x","type":"publish_event","payload":{}}`))
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestExhausted(t *testing.T) {
	j := Job{Attempts: 4, MaxTries: 5}
	if j.Exhausted() {
		t.Fatalf("4 of 5 tries should not be exhausted")
	}
	j.Attempts++
	if !j.Exhausted() {
		t.Fatalf("5 of 5 tries should be exhausted")
	}
}

func TestUnmarshal_RejectsUnknownStatus(t *testing.T) {
	raw := []byte(`{"id":"j1","type":"payment_recorded","payload":{},"status":"archived"}`)

	if _, err := Unmarshal(raw); !errors.Is(err, ErrInvalidJobStatus) {
		t.Fatalf("expected ErrInvalidJobStatus, got %v", err)
	}
}
