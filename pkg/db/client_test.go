package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newRetryTestClient(t *testing.T, attempts int, base time.Duration) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return &Client{conn: conn, retryAttempts: attempts, retryBase: base}
}

func TestWithTxRetryRecoversFromSerializationFailure(t *testing.T) {
	client := newRetryTestClient(t, 3, time.Millisecond)

	calls := 0
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithTxRetryBacksOffBetweenAttempts(t *testing.T) {
	base := 5 * time.Millisecond
	client := newRetryTestClient(t, 3, base)

	start := time.Now()
	calls := 0
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	elapsed := time.Since(start)

	assert.Equal(t, 3, calls)
	assert.True(t, IsRetryableTxError(err))
	// delays are base then 2*base, so three attempts take at least 3*base
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestWithTxRetryStopsOnNonRetryableError(t *testing.T) {
	client := newRetryTestClient(t, 5, time.Millisecond)

	boom := errors.New("boom")
	calls := 0
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithTxRetryHonorsContextCancellation(t *testing.T) {
	client := newRetryTestClient(t, 5, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := client.WithTxRetry(ctx, func(tx *gorm.DB) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryRunnerDelegatesToWithTxRetry(t *testing.T) {
	client := newRetryTestClient(t, 2, time.Millisecond)

	calls := 0
	err := client.RetryRunner().WithTx(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
