package expert

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"go.uber.org/goleak"
)

// stubAnalyzer returns canned results and counts calls.
type stubAnalyzer struct {
	calls atomic.Int32
	text  string
	err   error
	delay time.Duration
}

func (s *stubAnalyzer) Analyze(ctx context.Context, _ Prompt) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func (s *stubAnalyzer) Model() string { return "stub-model" }

func TestGuard_PassesThrough(t *testing.T) {
	defer goleak.VerifyNone(t)

	next := &stubAnalyzer{text: "Looks fine."}
	g := NewGuard(next, DefaultGuardConfig(), logger.Nop())

	text, err := g.Analyze(context.Background(), Prompt{Task: TaskExpertReview})
	require.NoError(t, err)
	assert.Equal(t, "Looks fine.", text)
	assert.Equal(t, "stub-model", g.Model())
	assert.Equal(t, "closed", g.State())
}

func TestGuard_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	next := &stubAnalyzer{text: "late", delay: time.Second}
	g := NewGuard(next, GuardConfig{Timeout: 20 * time.Millisecond, Failures: 3, Cooldown: time.Minute}, logger.Nop())

	start := time.Now()
	_, err := g.Analyze(context.Background(), Prompt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// Let the stub observe cancellation before the leak check.
	time.Sleep(20 * time.Millisecond)
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	next := &stubAnalyzer{err: errors.New("503 from model")}
	g := NewGuard(next, GuardConfig{Timeout: time.Second, Failures: 3, Cooldown: time.Minute}, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := g.Analyze(ctx, Prompt{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.Analyze(ctx, Prompt{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), next.calls.Load(), "open circuit must not call the analyzer")
}

func TestGuard_HalfOpenRecovers(t *testing.T) {
	defer goleak.VerifyNone(t)

	next := &stubAnalyzer{err: errors.New("boom")}
	g := NewGuard(next, GuardConfig{Timeout: time.Second, Failures: 1, Cooldown: 30 * time.Millisecond}, logger.Nop())
	ctx := context.Background()

	_, err := g.Analyze(ctx, Prompt{})
	require.Error(t, err)
	assert.Equal(t, "open", g.State())

	time.Sleep(50 * time.Millisecond)
	next.err = nil
	next.text = "recovered"

	text, err := g.Analyze(ctx, Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, "closed", g.State())
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Analyze(context.Background(), Prompt{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, ModelOf(Unavailable{}))
}
