package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/dbtest"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewService(NewRepository(conn), nil)

	indentID := uuid.New()
	actorID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventIndentSubmitted,
			AggregateType: enums.AggregateIndent,
			AggregateID:   indentID,
			Actor:         ActorFor(actorID, nil, string(enums.ActorRoleRequester)),
			Data: payloads.IndentStatusEvent{
				IndentID: indentID,
				Action:   enums.ActionSubmit,
				From:     enums.IndentStatusDraft,
				To:       enums.IndentStatusPendingCollegeApproval,
			},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, enums.EventIndentSubmitted, rows[0].EventType)
	require.Equal(t, indentID, rows[0].AggregateID)
	require.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.Equal(t, rows[0].ID.String(), envelope.EventID)
	require.NotNil(t, envelope.Actor)
	require.Equal(t, actorID, envelope.Actor.UserID)

	var data payloads.IndentStatusEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Equal(t, enums.IndentStatusPendingCollegeApproval, data.To)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewService(NewRepository(conn), nil)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventIndentCreated,
			AggregateType: enums.AggregateIndent,
			AggregateID:   uuid.New(),
			Data:          payloads.IndentCreatedEvent{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitValidation(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewService(NewRepository(conn), nil)
	ctx := context.Background()

	require.Error(t, svc.Emit(ctx, nil, DomainEvent{}))

	cases := []DomainEvent{
		{EventType: "unknown", AggregateType: enums.AggregateIndent, AggregateID: uuid.New()},
		{EventType: enums.EventIndentCreated, AggregateType: "unknown", AggregateID: uuid.New()},
		{EventType: enums.EventIndentCreated, AggregateType: enums.AggregateIndent},
	}
	for _, event := range cases {
		err := conn.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(ctx, tx, event)
		})
		require.Error(t, err)
	}
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{
		EventType:     enums.EventIndentCreated,
		AggregateType: enums.AggregateIndent,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     time.Now().UTC().Add(-time.Minute),
	}
	second := first
	second.AggregateID = uuid.New()
	second.CreatedAt = time.Now().UTC()
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	var batch []models.OutboxEvent
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	require.Len(t, batch, 2)
	require.Equal(t, first.AggregateID, batch[0].AggregateID)

	require.NoError(t, repo.MarkPublishedTx(conn, batch[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, batch[1].ID, errors.New("publish failed")))

	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", batch[1].ID).Error)
	require.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	require.Equal(t, "publish failed", *failed.LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, batch[1].ID, errors.New("gave up"), 3))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	require.Empty(t, batch)

	removed, err := repo.DeletePublishedBefore(conn, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}

func TestDLQRepository(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewDLQRepository(conn)
	ctx := context.Background()

	eventID := uuid.New()
	long := strings.Repeat("x", maxDLQErrorLen+10)
	for i, reason := range []enums.OutboxDLQErrorReason{
		enums.OutboxDLQReasonMaxAttempts,
		enums.OutboxDLQReasonNonRetryable,
		enums.OutboxDLQReasonNonRetryable,
	} {
		id := uuid.New()
		if i == 0 {
			id = eventID
		}
		entry := models.OutboxDLQ{
			EventID:       id,
			EventType:     enums.EventMaterialIssued,
			AggregateType: enums.AggregateMaterialIssue,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   reason,
			ErrorMessage:  &long,
		}
		require.NoError(t, repo.InsertTx(conn, entry))
	}

	found, err := repo.FindByEventID(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	missing, err := repo.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	rows, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	counts, err := repo.CountByReason(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts[enums.OutboxDLQReasonMaxAttempts])
	require.EqualValues(t, 2, counts[enums.OutboxDLQReasonNonRetryable])
}
