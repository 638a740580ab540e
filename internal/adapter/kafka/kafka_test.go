package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2024, 8, 1, 18, 0, 0, 0, time.UTC)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCollection(t *testing.T) domain.FeatureCollection {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	fc, _ := domain.BuildFeatureCollection([]domain.Hotspot{
		{Lat: 38.58, Lon: -122.82, Brightness: 365, Confidence: domain.ConfidenceHigh, Satellite: "Terra"},
		{Lat: -33.5, Lon: 150.25, Brightness: 330, Confidence: domain.ConfidenceLow, Satellite: "VIIRS"},
	}, domain.CollectionInfo{Region: domain.RegionGlobal}, domain.DefaultSpreadModel(), discardLogger())
	return fc
}

func TestSerializeToMessage(t *testing.T) {
	fc := testCollection(t)

	msg, err := serializeToMessage(fc.Features[0], fc.Metadata)
	require.NoError(t, err)

	assert.Equal(t, []byte("38.58,-122.82"), msg.Key)
	assert.Contains(t, string(msg.Value), `"confidence":"high"`)
	assert.Contains(t, string(msg.Value), `"coordinates":[-122.82,38.58]`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("global"), msg.Headers[0].Value)
	assert.Equal(t, "confidence", msg.Headers[1].Key)
	assert.Equal(t, []byte("high"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(generatedAt.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_Load_OneMessagePerFeature(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: discardLogger()}

	require.NoError(t, w.Load(context.Background(), testCollection(t)))

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("38.58,-122.82"), fw.msgs[0].Key)
	assert.Equal(t, []byte("-33.5,150.25"), fw.msgs[1].Key)
}

func TestWriter_Load_EmptyCollectionIsNoop(t *testing.T) {
	fw := &fakeWriter{err: errors.New("must not be called")}
	w := &Writer{writer: fw, logger: discardLogger()}

	require.NoError(t, w.Load(context.Background(), domain.FeatureCollection{Features: []domain.Feature{}}))
}

func TestWriter_Load_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := &Writer{writer: fw, logger: discardLogger()}

	err := w.Load(context.Background(), testCollection(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: discardLogger()}

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}
