package outbox

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRepo struct {
	unpublished []Entry
	published   []string
	failed      []string
}

func (r *fakeRepo) GetUnpublished(ctx context.Context, limit, maxRetries int) ([]Entry, error) {
	if limit < len(r.unpublished) {
		return r.unpublished[:limit], nil
	}
	return r.unpublished, nil
}

func (r *fakeRepo) MarkPublished(ctx context.Context, id string) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(ctx context.Context, id string) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakeDispatcher struct {
	failIDs map[string]bool
	sent    []string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, entry Entry) error {
	if d.failIDs[entry.ID] {
		return errors.New("downstream unavailable")
	}
	d.sent = append(d.sent, entry.ID)
	return nil
}

func TestPublisher_Tick_MarksAllPublishedOnSuccess(t *testing.T) {
	repo := &fakeRepo{unpublished: []Entry{
		{ID: "ev-1", EventType: "BookingCreated", CreatedAt: time.Now()},
		{ID: "ev-2", EventType: "BookingConfirmed", CreatedAt: time.Now()},
	}}
	dispatcher := &fakeDispatcher{failIDs: map[string]bool{}}
	p := New(repo, dispatcher, DefaultConfig(), nil, nil)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected 2 published, got %d", len(repo.published))
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected 0 failed, got %d", len(repo.failed))
	}
}

func TestPublisher_Tick_OneFailureIncrementsRetryWithoutBlockingOthers(t *testing.T) {
	repo := &fakeRepo{unpublished: []Entry{
		{ID: "ev-1", EventType: "BookingCreated", CreatedAt: time.Now(), RetryCount: 0},
		{ID: "ev-2", EventType: "BookingConfirmed", CreatedAt: time.Now()},
	}}
	dispatcher := &fakeDispatcher{failIDs: map[string]bool{"ev-1": true}}
	p := New(repo, dispatcher, DefaultConfig(), nil, nil)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(repo.published) != 1 || repo.published[0] != "ev-2" {
		t.Fatalf("expected only ev-2 published, got %v", repo.published)
	}
	if len(repo.failed) != 1 || repo.failed[0] != "ev-1" {
		t.Fatalf("expected ev-1 marked failed, got %v", repo.failed)
	}
}

func TestPublisher_Tick_NoUnpublishedIsNoop(t *testing.T) {
	repo := &fakeRepo{}
	dispatcher := &fakeDispatcher{failIDs: map[string]bool{}}
	p := New(repo, dispatcher, DefaultConfig(), nil, nil)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(dispatcher.sent) != 0 {
		t.Fatalf("expected no dispatches, got %v", dispatcher.sent)
	}
}
