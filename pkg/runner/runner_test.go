package runner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/canvasflow/pkg/adapters/memory"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/ports"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeline is prompt -> render -> variants -> gallery.
func pipeline() domain.Graph {
	return domain.Graph{
		Nodes: []domain.NodeInstance{
			{ID: "prompt", Type: registry.TypeTextPrompt, Data: map[string]any{"text": "cabin"}},
			{ID: "render", Type: registry.TypeImageGenerator},
			{ID: "variants", Type: registry.TypeVariantGenerator},
			{ID: "gallery", Type: registry.TypeGalleryOutput},
		},
		Edges: []domain.Connection{
			{ID: "e1", Source: "prompt", SourceHandle: "text", Target: "render", TargetHandle: "prompt"},
			{ID: "e2", Source: "render", SourceHandle: "image", Target: "variants", TargetHandle: "sourceImage"},
			{ID: "e3", Source: "variants", SourceHandle: "variants", Target: "gallery", TargetHandle: "images"},
		},
	}
}

func echoHandlers() *runner.Handlers {
	h := runner.NewHandlers()
	h.SetFallback(runner.Echo(registry.Default()))
	return h
}

func TestRunner_RunPersistsAndTracks(t *testing.T) {
	store := memory.NewStore()
	r := runner.New(registry.Default(), echoHandlers(), runner.WithStore(store))
	ctx := context.Background()

	state, err := r.Run(ctx, runner.Request{Graph: pipeline()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Len(t, state.Completed, 4)

	saved, err := store.Load(ctx, state.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, saved.Status)

	statuses, err := r.Statuses(state.RunID)
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	for _, s := range statuses {
		assert.Equal(t, domain.NodeCompleted, s.Status, s.NodeID)
	}

	live, err := r.State(ctx, state.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunID, live.RunID)
	assert.Empty(t, r.Active())
}

func TestRunner_CheckRejectsBadGraphs(t *testing.T) {
	r := runner.New(registry.Default(), echoHandlers())

	g := pipeline()
	g.Edges[0].TargetHandle = "style"
	_, err := r.Run(context.Background(), runner.Request{Graph: g})
	var graphErr *validator.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, "e1", graphErr.Invalid[0].EdgeID)

	bare := runner.New(registry.Default(), runner.NewHandlers())
	err = bare.Check(pipeline())
	assert.ErrorIs(t, err, domain.ErrNoHandler)
	assert.ErrorContains(t, err, registry.TypeTextPrompt)
}

func TestRunner_CheckRejectsCycles(t *testing.T) {
	reg := registry.MustNew(domain.NodeTypeDefinition{
		Type:     "relay",
		Category: domain.CategoryProcessing,
		Inputs:   []domain.Port{{ID: "in", Type: domain.PortText}},
		Outputs:  []domain.Port{{ID: "out", Type: domain.PortText}},
	})
	h := runner.NewHandlers()
	h.SetFallback(runner.Echo(reg))
	r := runner.New(reg, h)

	g := domain.Graph{
		Nodes: []domain.NodeInstance{{ID: "a", Type: "relay"}, {ID: "b", Type: "relay"}},
		Edges: []domain.Connection{
			{ID: "ab", Source: "a", SourceHandle: "out", Target: "b", TargetHandle: "in"},
			{ID: "ba", Source: "b", SourceHandle: "out", Target: "a", TargetHandle: "in"},
		},
	}
	err := r.Check(g)
	var structural *executor.StructuralGraphError
	require.ErrorAs(t, err, &structural)
	assert.ErrorIs(t, err, domain.ErrCycleOrDisconnectedGraph)
}

func TestRunner_SubmitAndControl(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h := echoHandlers()
	h.Register(registry.TypeTextPrompt, func(_ context.Context, n domain.NodeInstance, _ map[string]any) (any, error) {
		started <- struct{}{}
		<-release
		return map[string]any{"text": n.Data["text"]}, nil
	})
	r := runner.New(registry.Default(), h)
	ctx := context.Background()

	runID, err := r.Submit(ctx, runner.Request{Graph: pipeline(), Mode: domain.ModeManual})
	require.NoError(t, err)
	<-started

	assert.Equal(t, []string{runID}, r.Active())
	ok, err := r.Pause(runID)
	require.NoError(t, err)
	assert.True(t, ok)

	close(release)
	assert.Eventually(t, func() bool {
		s, err := r.State(ctx, runID)
		return err == nil && s.Completed.Has("prompt")
	}, time.Second, 5*time.Millisecond)

	state, err := r.State(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, state.Status)
	assert.Equal(t, domain.ModeManual, state.Mode)

	ok, err = r.Resume(runID)
	require.NoError(t, err)
	assert.True(t, ok)

	final, err := r.Wait(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)

	ok, err = r.Stop(runID)
	require.NoError(t, err)
	assert.False(t, ok, "stop has no effect on a finished run")
}

func TestRunner_StopSubmittedRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h := echoHandlers()
	h.Register(registry.TypeTextPrompt, func(context.Context, domain.NodeInstance, map[string]any) (any, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	})
	r := runner.New(registry.Default(), h)
	ctx := context.Background()

	runID, err := r.Submit(ctx, runner.Request{Graph: pipeline()})
	require.NoError(t, err)
	<-started

	ok, err := r.Stop(runID)
	require.NoError(t, err)
	assert.True(t, ok)
	close(release)

	state, err := r.Wait(ctx, runID)
	assert.ErrorIs(t, err, domain.ErrRunStopped)
	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.Empty(t, state.Completed)

	statuses, err := r.Statuses(runID)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.NotEqual(t, domain.NodeRunning, s.Status, "node %s left running", s.NodeID)
	}
}

func TestRunner_StopRunWaitingForLock(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	h := echoHandlers()
	h.Register(registry.TypeTextPrompt, func(context.Context, domain.NodeInstance, map[string]any) (any, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	})
	r := runner.New(registry.Default(), h)
	ctx := context.Background()

	first, err := r.Submit(ctx, runner.Request{Graph: pipeline(), Key: "wf"})
	require.NoError(t, err)
	<-started

	second, err := r.Submit(ctx, runner.Request{Graph: pipeline(), Key: "wf"})
	require.NoError(t, err)

	ok, err := r.Stop(second)
	require.NoError(t, err)
	assert.True(t, ok)
	close(release)

	state, err := r.Wait(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)

	state, err = r.Wait(ctx, second)
	assert.ErrorIs(t, err, domain.ErrRunStopped)
	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.Empty(t, state.Completed)
	assert.Len(t, started, 0, "the stopped run never dispatched a node")

	ok, err = r.Stop(second)
	require.NoError(t, err)
	assert.False(t, ok, "stop has no effect on a finished run")
}

func TestRunner_UnknownRun(t *testing.T) {
	r := runner.New(registry.Default(), echoHandlers())
	ctx := context.Background()

	_, err := r.State(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = r.Pause("nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = r.Statuses("nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = r.Wait(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunner_EvictedRunsFallBackToStore(t *testing.T) {
	r := runner.New(registry.Default(), echoHandlers(), runner.WithRetention(0))
	ctx := context.Background()

	state, err := r.Run(ctx, runner.Request{Graph: pipeline()})
	require.NoError(t, err)

	_, err = r.Statuses(state.RunID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	loaded, err := r.State(ctx, state.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, loaded.Status)
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return func(context.Context) error { return nil }, nil
}

func TestRunner_SameKeyRunsAreSerialized(t *testing.T) {
	var inFlight, peak atomic.Int32
	h := echoHandlers()
	h.Register(registry.TypeTextPrompt, func(context.Context, domain.NodeInstance, map[string]any) (any, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	})

	locker := &recordingLocker{}
	r := runner.New(registry.Default(), h, runner.WithLocker(locker))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(ctx, runner.Request{Graph: pipeline(), Key: "cabin"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, []string{"cabin", "cabin", "cabin"}, locker.keys)
}
