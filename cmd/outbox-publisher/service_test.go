package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/registry"
)

// harness bundles the fakes behind one publisher Service.
type harness struct {
	repo    *fakeRepo
	pub     *fakePublisher
	dlq     *fakeDLQRepo
	metrics *fakeMetrics
	svc     *Service
}

type harnessOptions struct {
	topic       string
	resolveErr  error
	maxAttempts int
	failures    []error
}

func newHarness(t *testing.T, events []models.OutboxEvent, opts harnessOptions) *harness {
	t.Helper()
	if opts.topic == "" {
		opts.topic = "indents-topic"
	}
	results := make([]publishResult, 0, len(opts.failures))
	for _, err := range opts.failures {
		results = append(results, fakePublishResult{err: err})
	}
	h := &harness{
		repo:    &fakeRepo{events: events},
		pub:     &fakePublisher{results: results},
		dlq:     &fakeDLQRepo{},
		metrics: &fakeMetrics{},
	}

	resolver := &fakeRegistry{err: opts.resolveErr}
	if opts.resolveErr == nil {
		resolver.resolved = &registry.ResolvedEvent{
			Descriptor: registry.EventDescriptor{Topic: opts.topic},
			Payload:    &payloads.IndentStatusEvent{},
		}
	}

	outboxCfg := config.OutboxConfig{BatchSize: 10, PollIntervalMS: 100, MaxAttempts: 5}
	if opts.maxAttempts > 0 {
		outboxCfg.MaxAttempts = opts.maxAttempts
	}
	svc, err := NewService(ServiceParams{
		Config:           &config.Config{Outbox: outboxCfg},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               fakeDB{},
		PubSub:           fakePubSubClient{},
		Repository:       h.repo,
		Registry:         resolver,
		PublisherFactory: func(string) publisher { return h.pub },
		DLQRepository:    h.dlq,
		Metrics:          h.metrics,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) run(t *testing.T) bool {
	t.Helper()
	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	return processed
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, aggregateID uuid.UUID) models.OutboxEvent {
	t.Helper()
	id := uuid.New()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    id.String(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            id,
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   aggregateID,
		Payload:       payload,
	}
}

func indentRow(t *testing.T, eventType enums.OutboxEventType) models.OutboxEvent {
	return outboxRow(t, eventType, enums.AggregateIndent, uuid.New())
}

func TestProcessBatchKeepsGoingAfterTransientFailure(t *testing.T) {
	first := indentRow(t, enums.EventIndentSubmitted)
	second := indentRow(t, enums.EventIndentSubmitted)
	h := newHarness(t, []models.OutboxEvent{first, second}, harnessOptions{failures: []error{errors.New("transient"), nil}})

	require.True(t, h.run(t))
	require.Equal(t, []uuid.UUID{first.ID}, h.repo.failed)
	require.Equal(t, []uuid.UUID{second.ID}, h.repo.published)
	require.Equal(t, 1, h.metrics.failed[string(enums.EventIndentSubmitted)])
	require.Equal(t, 1, h.metrics.published[string(enums.EventIndentSubmitted)])
}

func TestProcessBatchPublishesToResolvedTopic(t *testing.T) {
	row := outboxRow(t, enums.EventInventoryLowStock, enums.AggregateInventoryRecord, uuid.New())
	h := newHarness(t, []models.OutboxEvent{row}, harnessOptions{topic: "notification-topic"})
	var topics []string
	h.svc.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return h.pub
	}

	require.True(t, h.run(t))
	require.Equal(t, []string{"notification-topic"}, topics)
	require.Len(t, h.pub.sent, 1)

	msg := h.pub.sent[0]
	require.Equal(t, row.Payload, json.RawMessage(msg.Data))
	require.Equal(t, "inventory_record:"+row.AggregateID.String(), msg.OrderingKey)
	require.Equal(t, row.ID.String(), msg.Attributes["event_id"])
	require.Equal(t, string(enums.EventInventoryLowStock), msg.Attributes["event_type"])
}

func TestProcessBatchDeadLettersUnresolvableEvents(t *testing.T) {
	row := indentRow(t, enums.EventIndentSubmitted)
	h := newHarness(t, []models.OutboxEvent{row}, harnessOptions{
		resolveErr: registry.NewNonRetryableError(errors.New("invalid payload")),
	})

	require.True(t, h.run(t))
	require.Empty(t, h.pub.sent)
	require.Len(t, h.dlq.entries, 1)

	entry := h.dlq.entries[0]
	require.Equal(t, row.ID, entry.EventID)
	require.Equal(t, row.Payload, entry.Payload)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	require.NotNil(t, entry.ErrorMessage)
	require.Contains(t, *entry.ErrorMessage, "invalid payload")
	require.Equal(t, []uuid.UUID{row.ID}, h.repo.terminal)
}

func TestProcessBatchDeadLettersWhenTopicHasNoPublisher(t *testing.T) {
	row := indentRow(t, enums.EventIndentCancelled)
	h := newHarness(t, []models.OutboxEvent{row}, harnessOptions{})
	h.svc.publisherFactory = func(string) publisher { return nil }

	require.True(t, h.run(t))
	require.Len(t, h.dlq.entries, 1)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
}

func TestProcessBatchDeadLettersAfterMaxAttempts(t *testing.T) {
	row := indentRow(t, enums.EventIndentSubmitted)
	row.AttemptCount = 1
	h := newHarness(t, []models.OutboxEvent{row}, harnessOptions{
		maxAttempts: 2,
		failures:    []error{errors.New("transient")},
	})

	require.True(t, h.run(t))
	require.Len(t, h.dlq.entries, 1)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, h.dlq.entries[0].ErrorReason)
	require.Empty(t, h.repo.failed)
	key := string(enums.EventIndentSubmitted) + ":" + string(enums.OutboxDLQReasonMaxAttempts)
	require.Equal(t, 1, h.metrics.deadLettered[key])
}

func TestProcessBatchHoldsBackSameAggregateAfterFailure(t *testing.T) {
	indentID := uuid.New()
	submitted := outboxRow(t, enums.EventIndentSubmitted, enums.AggregateIndent, indentID)
	decided := outboxRow(t, enums.EventIndentDecided, enums.AggregateIndent, indentID)
	unrelated := indentRow(t, enums.EventIndentSubmitted)
	h := newHarness(t, []models.OutboxEvent{submitted, decided, unrelated}, harnessOptions{
		failures: []error{errors.New("transient"), nil},
	})

	require.True(t, h.run(t), "the unrelated aggregate still makes progress")
	require.Len(t, h.pub.sent, 2)
	require.Equal(t, []uuid.UUID{submitted.ID}, h.repo.failed)
	require.Equal(t, []uuid.UUID{unrelated.ID}, h.repo.published)

	wantKey := "indent:" + indentID.String()
	require.Equal(t, wantKey, h.pub.sent[0].OrderingKey)
	require.Equal(t, []string{wantKey}, h.pub.resumed)
}

func TestProcessBatchReportsNoProgressOnRetriesOnly(t *testing.T) {
	row := outboxRow(t, enums.EventInventoryAdjusted, enums.AggregateInventoryRecord, uuid.New())
	h := newHarness(t, []models.OutboxEvent{row}, harnessOptions{
		topic:    "inventory-topic",
		failures: []error{errors.New("unavailable")},
	})

	require.False(t, h.run(t))
	require.Empty(t, h.repo.published)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Config: &config.Config{}})
	require.EqualError(t, err, "logger is required")
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSubClient struct{}

func (fakePubSubClient) Ping(context.Context) error { return nil }

func (fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
	sent    []*gcppubsub.Message
	resumed []string
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next
}

func (f *fakePublisher) ResumePublish(key string) {
	f.resumed = append(f.resumed, key)
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Descriptor.AggregateType = event.AggregateType
	resolved.Envelope = outbox.PayloadEnvelope{EventID: event.ID.String(), OccurredAt: event.CreatedAt}
	return &resolved, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeMetrics struct {
	published    map[string]int
	failed       map[string]int
	deadLettered map[string]int
}

func bump(m *map[string]int, key string) {
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[key]++
}

func (f *fakeMetrics) IncPublished(eventType string) { bump(&f.published, eventType) }

func (f *fakeMetrics) IncFailed(eventType string) { bump(&f.failed, eventType) }

func (f *fakeMetrics) IncDeadLettered(eventType, reason string) {
	bump(&f.deadLettered, eventType+":"+reason)
}
