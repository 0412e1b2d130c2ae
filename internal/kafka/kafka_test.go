package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader replays msgs, then reports a closed reader.
type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) Close() error { return nil }

func TestPublishImportCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topic: "ledger.import.completed", Logger: logger.NewNopLogger()}

	event := models.ImportCompleted{
		RunID:      "run-1",
		File:       "data/2024-orders-export.csv",
		Read:       10,
		Inserted:   8,
		Duplicates: 1,
		Skipped:    1,
		FinishedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishImportCompleted(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run-1", string(w.msgs[0].Key))

	var decoded models.ImportCompleted
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestPublishWrapsWriterError(t *testing.T) {
	p := &Producer{Writer: &fakeWriter{err: errors.New("broker down")}, Topic: "t", Logger: logger.NewNopLogger()}
	err := p.PublishImportCompleted(context.Background(), models.ImportCompleted{RunID: "x"})
	assert.ErrorContains(t, err, "broker down")
}

func TestConsumerDeliversEventsAndSkipsGarbage(t *testing.T) {
	good, err := json.Marshal(models.ImportCompleted{RunID: "run-2", Inserted: 3})
	require.NoError(t, err)

	c := &Consumer{
		reader: &fakeReader{msgs: []kafka.Message{
			{Value: []byte("not json")},
			{Value: good},
			{Value: good},
		}},
		topic: "ledger.import.completed",
		log:   logger.NewNopLogger(),
	}

	var got []string
	err = c.Run(context.Background(), func(ctx context.Context, e models.ImportCompleted) error {
		got = append(got, e.RunID)
		if len(got) == 1 {
			return errors.New("flush failed")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"run-2", "run-2"}, got)
}

func TestEnsureTopicsExistRequiresBrokers(t *testing.T) {
	err := EnsureTopicsExist(context.Background(), nil, []string{"t"}, logger.NewNopLogger())
	assert.Error(t, err)
}
