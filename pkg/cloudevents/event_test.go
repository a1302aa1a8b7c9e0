package cloudevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoflow/production-service/pkg/logging"
)

func TestEventFactory_CreateEvent(t *testing.T) {
	f := NewEventFactory("/production-service")
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")

	e, err := f.CreateEvent(ctx, "production.job.held", "job/J-1", map[string]any{"reason": "Equipment"})
	require.NoError(t, err)

	assert.Equal(t, SpecVersion, e.SpecVersion)
	assert.Equal(t, "/production-service", e.Source)
	assert.Equal(t, "job/J-1", e.Subject)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.NotEmpty(t, e.ID)
	assert.JSONEq(t, `{"reason":"Equipment"}`, string(e.Data))
	assert.NoError(t, e.Validate())
}

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		e, err := Parse([]byte(`{"specversion":"1.0","id":"1","type":"production.job.import","source":"printavo","data":{"id":"J-1"}}`))
		require.NoError(t, err)

		var data struct {
			ID string `json:"id"`
		}
		require.NoError(t, e.DecodeData(&data))
		assert.Equal(t, "J-1", data.ID)
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := Parse([]byte(`{"specversion":"1.0","id":"1","source":"x"}`))
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Parse([]byte(`nope`))
		assert.Error(t, err)
	})
}
