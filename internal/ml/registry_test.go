package ml

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

// stubLoader returns canned snapshots or errors per call
type stubLoader struct {
	mu    sync.Mutex
	snaps []*Snapshot
	errs  []error
	calls int
}

func (l *stubLoader) Load(dir string) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls
	l.calls++
	if l.errs[i] != nil {
		return nil, l.errs[i]
	}
	return l.snaps[i], nil
}

func testSnapshot(name string) *Snapshot {
	artifact := Artifact{
		Name:   name,
		Schema: []string{"temperature"},
		Scaler: &Scaler{Mean: []float64{0}, Scale: []float64{1}},
	}
	return &Snapshot{
		Failure: &ClassifierArtifact{Artifact: artifact},
		Yield:   &RegressorArtifact{Artifact: artifact},
		Anomaly: &ClustererArtifact{Artifact: artifact},
	}
}

func TestRegistry_NotLoaded(t *testing.T) {
	registry := NewRegistry(&stubLoader{})

	assert.False(t, registry.Loaded())
	_, err := registry.Snapshot()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModelsNotLoaded))
}

func TestRegistry_LoadPublishesSnapshot(t *testing.T) {
	loader := &stubLoader{
		snaps: []*Snapshot{testSnapshot("first")},
		errs:  []error{nil},
	}
	registry := NewRegistry(loader)

	require.NoError(t, registry.Load("ml"))
	require.True(t, registry.Loaded())

	snap, err := registry.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "first", snap.Failure.Name)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestRegistry_FailedLoadIsAllOrNothing(t *testing.T) {
	loader := &stubLoader{
		snaps: []*Snapshot{nil},
		errs:  []error{errors.New("features file corrupt")},
	}
	registry := NewRegistry(loader)

	err := registry.Load("ml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModelLoad))
	assert.False(t, registry.Loaded())
}

func TestRegistry_FailedReloadKeepsPrevious(t *testing.T) {
	loader := &stubLoader{
		snaps: []*Snapshot{testSnapshot("good"), nil},
		errs:  []error{nil, errors.New("disk gone")},
	}
	registry := NewRegistry(loader)

	require.NoError(t, registry.Load("ml"))
	require.Error(t, registry.Load("ml"))

	snap, err := registry.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "good", snap.Failure.Name, "previous snapshot must survive a failed reload")
}

func TestRegistry_ReloadSwapsWholeSnapshot(t *testing.T) {
	loader := &stubLoader{
		snaps: []*Snapshot{testSnapshot("old"), testSnapshot("new")},
		errs:  []error{nil, nil},
	}
	registry := NewRegistry(loader)

	require.NoError(t, registry.Load("ml"))
	before, err := registry.Snapshot()
	require.NoError(t, err)

	require.NoError(t, registry.Load("ml"))
	after, err := registry.Snapshot()
	require.NoError(t, err)

	// A reader holding the old snapshot keeps a consistent set
	assert.Equal(t, "old", before.Failure.Name)
	assert.Equal(t, "old", before.Anomaly.Name)
	assert.Equal(t, "new", after.Failure.Name)
	assert.Equal(t, "new", after.Anomaly.Name)
}
