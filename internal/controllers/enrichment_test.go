package controllers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/focusflow/internal/history"
	"github.com/amaumene/focusflow/internal/models"
)

// stubGenerator blocks until release is closed, then returns output
// or err. calls counts invocations.
type stubGenerator struct {
	calls   atomic.Int32
	release chan struct{}
	output  string
	err     error
}

func newStubGenerator(output string) *stubGenerator {
	return &stubGenerator{release: make(chan struct{}), output: output}
}

func (g *stubGenerator) GenerateStudyAid(ctx context.Context, title, notes string, kind models.GenerationKind) (string, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.output, g.err
}

func newTestCoordinator(gen Generator) (*EnrichmentCoordinator, *SessionController) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := history.NewStore(&memStorage{}, logger)
	sessions := NewSessionController(store, logger)
	return NewEnrichmentCoordinator(sessions, gen, logger), sessions
}

// waitForStatus polls until the coordinator leaves the requesting
// state; the generation goroutine has no other completion signal.
func waitForStatus(t *testing.T, coord *EnrichmentCoordinator, want models.EnrichmentStatus) models.EnrichmentState {
	t.Helper()
	return waitFor(t, coord, coord.State, want)
}

// waitForInternal polls the raw tagged state, bypassing the
// active-session view. Needed when the public view already reads idle
// because the active session changed.
func waitForInternal(t *testing.T, coord *EnrichmentCoordinator, want models.EnrichmentStatus) models.EnrichmentState {
	t.Helper()
	return waitFor(t, coord, func() models.EnrichmentState {
		coord.mu.Lock()
		defer coord.mu.Unlock()
		return coord.state
	}, want)
}

func waitFor(t *testing.T, coord *EnrichmentCoordinator, get func() models.EnrichmentState, want models.EnrichmentStatus) models.EnrichmentState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		state := get()
		if state.Status == want {
			return state
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %q, have %q", want, state.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestGenerateNoActiveSession(t *testing.T) {
	coord, _ := newTestCoordinator(newStubGenerator("out"))

	err := coord.Generate(models.GenerationQuiz)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
}

func TestGenerateSingleFlight(t *testing.T) {
	gen := newStubGenerator("quiz questions")
	coord, sessions := newTestCoordinator(gen)

	_, err := sessions.LoadLink("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	// Two triggers in quick succession while the first is in flight.
	require.NoError(t, coord.Generate(models.GenerationQuiz))
	require.NoError(t, coord.Generate(models.GenerationQuiz))

	assert.Equal(t, models.EnrichmentRequesting, coord.State().Status)

	close(gen.release)
	state := waitForStatus(t, coord, models.EnrichmentReady)

	// Exactly one external call was made.
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, "quiz questions", state.Output)
	assert.Equal(t, models.GenerationQuiz, state.Kind)
}

func TestGenerateStaleResultDiscarded(t *testing.T) {
	gen := newStubGenerator("summary for the first video")
	coord, sessions := newTestCoordinator(gen)

	first, err := sessions.LoadLink("https://youtu.be/aaaaaaaaaaa")
	require.NoError(t, err)
	require.NoError(t, coord.Generate(models.GenerationSummary))

	// The user moves on before the response arrives.
	second, err := sessions.LoadLink("https://youtu.be/bbbbbbbbbbb")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	close(gen.release)
	waitForInternal(t, coord, models.EnrichmentIdle)

	// The stale result is discarded, not applied to the new session.
	assert.Empty(t, sessions.Active().Notes)
	assert.Equal(t, models.EnrichmentIdle, coord.State().Status)
}

func TestGenerateFailureSurfaces(t *testing.T) {
	gen := newStubGenerator("")
	gen.err = errors.New("provider unavailable")
	coord, sessions := newTestCoordinator(gen)

	_, err := sessions.LoadLink("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NoError(t, coord.Generate(models.GenerationPlan))

	close(gen.release)
	state := waitForStatus(t, coord, models.EnrichmentFailed)
	assert.Contains(t, state.Error, "provider unavailable")

	// Failures are never retried on their own.
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestStateReadsIdleAfterActiveChange(t *testing.T) {
	gen := newStubGenerator("ready output")
	coord, sessions := newTestCoordinator(gen)

	_, err := sessions.LoadLink("https://youtu.be/aaaaaaaaaaa")
	require.NoError(t, err)
	require.NoError(t, coord.Generate(models.GenerationQuiz))
	close(gen.release)
	waitForStatus(t, coord, models.EnrichmentReady)

	// Switching sessions resets the visible state without any
	// explicit teardown call.
	_, err = sessions.LoadLink("https://youtu.be/bbbbbbbbbbb")
	require.NoError(t, err)
	assert.Equal(t, models.EnrichmentIdle, coord.State().Status)
}

func TestPromoteToNotes(t *testing.T) {
	gen := newStubGenerator("1. What is a vector?")
	coord, sessions := newTestCoordinator(gen)

	_, err := sessions.LoadLink("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	notes := "my own notes"
	sessions.ApplyUpdate(models.RecordUpdate{Notes: &notes})

	require.NoError(t, coord.Generate(models.GenerationQuiz))
	close(gen.release)
	waitForStatus(t, coord, models.EnrichmentReady)

	require.NoError(t, coord.PromoteToNotes())

	// AI output lands after the user's notes, never over them.
	assert.Equal(t, "my own notes\n\n1. What is a vector?", sessions.Active().Notes)
	assert.Equal(t, models.EnrichmentIdle, coord.State().Status)

	// A second promote has nothing left to apply.
	assert.ErrorIs(t, coord.PromoteToNotes(), models.ErrNoEnrichmentOutput)
}
