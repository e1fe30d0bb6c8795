package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/geocoder89/assethub/internal/notifications"
	"github.com/geocoder89/assethub/internal/queue/redisqueue"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQueue struct {
	mu      sync.Mutex
	ready   []jobs.Job
	retried []jobs.Job
	delays  []time.Duration
	dead    []jobs.Job
	pingErr error
	popErr  error
}

func (q *fakeQueue) Dequeue(ctx context.Context, _ time.Duration) (jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.popErr != nil {
		err := q.popErr
		q.popErr = nil
		return jobs.Job{}, err
	}
	if len(q.ready) == 0 {
		return jobs.Job{}, redisqueue.ErrEmpty
	}
	j := q.ready[0]
	q.ready = q.ready[1:]
	return j, nil
}

func (q *fakeQueue) Retry(_ context.Context, j jobs.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retried = append(q.retried, j)
	q.delays = append(q.delays, delay)
	return nil
}

func (q *fakeQueue) DeadLetter(_ context.Context, j jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, j)
	return nil
}

func (q *fakeQueue) PromoteDue(context.Context) (int, error) { return 0, nil }

func (q *fakeQueue) Ping(context.Context) error { return q.pingErr }

type recordingNotifier struct {
	mu       sync.Mutex
	notices  []notifications.AssetStatusNotice
	receipts []notifications.PaymentReceipt
	err      error
}

func (n *recordingNotifier) SendAssetStatusNotice(_ context.Context, in notifications.AssetStatusNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, in)
	return n.err
}

func (n *recordingNotifier) SendPaymentReceipt(_ context.Context, in notifications.PaymentReceipt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, in)
	return n.err
}

func mustBuild(t *testing.T, typ jobs.JobType, payload any) jobs.Job {
	t.Helper()
	j, err := jobs.Build(typ, payload)
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	return j
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	w := New(Config{}, &fakeQueue{}, &recordingNotifier{}, nil)

	claimed, err := w.ProcessOne(context.Background())
	if err != nil || claimed {
		t.Fatalf("got claimed=%v err=%v", claimed, err)
	}
}

func TestProcessOne_DeliversAssetNotice(t *testing.T) {
	q := &fakeQueue{ready: []jobs.Job{mustBuild(t, jobs.JobAssetStatusChanged, jobs.AssetStatusChangedPayload{
		AssetID: "a1", Email: "emp@x.com", Status: "approved", ActorEmail: "boss@x.com",
	})}}
	n := &recordingNotifier{}
	w := New(Config{}, q, n, nil)

	claimed, err := w.ProcessOne(context.Background())
	if err != nil || !claimed {
		t.Fatalf("got claimed=%v err=%v", claimed, err)
	}

	if len(n.notices) != 1 || n.notices[0].Email != "emp@x.com" || n.notices[0].DecidedBy != "boss@x.com" {
		t.Fatalf("unexpected notices: %+v", n.notices)
	}
	if snap := w.Metrics().Snapshot(); snap.Done != 1 || snap.Claimed != 1 || snap.ByType["asset_status_changed"]["done"] != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestProcessOne_RetriesThenDeadLetters(t *testing.T) {
	j := mustBuild(t, jobs.JobPaymentRecorded, jobs.PaymentRecordedPayload{PaymentID: "p1", Email: "a@x.com"})

	q := &fakeQueue{ready: []jobs.Job{j}}
	n := &recordingNotifier{err: errors.New("provider down")}
	w := New(Config{}, q, n, nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(q.retried) != 1 || q.retried[0].Attempts != 1 || q.retried[0].LastError == nil {
		t.Fatalf("expected one retry with attempt 1, got %+v", q.retried)
	}
	if q.delays[0] < 2*time.Second {
		t.Fatalf("first retry should wait at least 2s, got %s", q.delays[0])
	}

	last := q.retried[0]
	last.Attempts = jobs.DefaultMaxTries - 1
	q.ready = append(q.ready, last)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(q.dead) != 1 || q.dead[0].Attempts != jobs.DefaultMaxTries {
		t.Fatalf("expected the job to be dead-lettered after %d tries, got %+v", jobs.DefaultMaxTries, q.dead)
	}
}

func TestProcessOne_BadPayloadIsDeadLetteredAtOnce(t *testing.T) {
	j, _ := jobs.NewJob(jobs.JobPaymentRecorded, []byte(`"not an object"`), time.Time{})

	q := &fakeQueue{ready: []jobs.Job{j}}
	w := New(Config{}, q, &recordingNotifier{}, nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(q.dead) != 1 || len(q.retried) != 0 {
		t.Fatalf("retried=%d dead=%d", len(q.retried), len(q.dead))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	q := &fakeQueue{}
	w := New(Config{Concurrency: 2, PromoteInterval: 5 * time.Millisecond, ShutdownGrace: time.Second}, q, &recordingNotifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	q := &fakeQueue{}
	w := New(Config{}, q, &recordingNotifier{}, nil)
	h := w.HealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not running yet, got %d", rec.Code)
	}

	w.setReady(true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}

	q.pingErr = errors.New("redis down")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestExponentialBackoff_Caps(t *testing.T) {
	if d := ExponentialBackoff(0); d < 2*time.Second || d >= 2*time.Second+maxJitter {
		t.Fatalf("attempt 0: %s", d)
	}
	if d := ExponentialBackoff(2); d < 8*time.Second || d >= 8*time.Second+maxJitter {
		t.Fatalf("attempt 2: %s", d)
	}
	if d := ExponentialBackoff(40); d < backoffCap || d >= backoffCap+maxJitter {
		t.Fatalf("attempt 40 should be capped: %s", d)
	}
}

func TestProcessOne_UndecodableEntryCountsAsDeadLettered(t *testing.T) {
	q := &fakeQueue{popErr: fmt.Errorf("%w: bad json", redisqueue.ErrUndecodable)}
	w := New(Config{}, q, &recordingNotifier{}, nil)

	claimed, err := w.ProcessOne(context.Background())
	if err != nil || !claimed {
		t.Fatalf("got claimed=%v err=%v", claimed, err)
	}
	if snap := w.Metrics().Snapshot(); snap.DeadLettered != 1 || snap.Claimed != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}
