package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgball2608/snappy-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(retries uint64) Config {
	return Config{
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      1.5,
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.NewNop(), "flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.NewNop(), "broken", func() error {
		calls++
		return errors.New("always")
	}, fastConfig(2))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollConfirms(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), logger.NewNop(), "avatar", func() (bool, error) {
		calls++
		return calls == 4, nil
	}, fastConfig(10))

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestPollBounded(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), logger.NewNop(), "avatar", func() (bool, error) {
		calls++
		return false, nil
	}, fastConfig(3))

	require.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 4, calls)
}

func TestPollCheckErrorStillNotConfirmed(t *testing.T) {
	boom := errors.New("boom")
	err := Poll(context.Background(), logger.NewNop(), "avatar", func() (bool, error) {
		return false, boom
	}, fastConfig(1))

	require.ErrorIs(t, err, ErrNotConfirmed)
	require.ErrorIs(t, err, boom)
}

func TestPollStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Poll(ctx, logger.NewNop(), "avatar", func() (bool, error) {
		return false, nil
	}, fastConfig(100))

	require.Error(t, err)
}
