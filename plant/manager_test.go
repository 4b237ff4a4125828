package plant

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastStart is a fermentation start config ticking every millisecond.
func fastStart() StartConfig {
	return StartConfig{
		Kind:           KindFermentation,
		Mode:           string(ModeSingle7KL),
		DT:             1.0,
		RealtimeFactor: 1000.0,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestManager_StartAndSnapshot(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	id, err := m.Start(fastStart())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Simulated time advances without any further calls
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(id)
		return err == nil && snap.SimulationTime > 0
	})

	info, err := m.Info(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, info.Status)
	assert.Equal(t, KindFermentation, info.Kind)
}

func TestManager_RejectsUnknownKind(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	_, err := m.Start(StartConfig{Kind: "weather"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestManager_CapacityLimit(t *testing.T) {
	// GIVEN a manager that allows a single simulation
	m := NewManager(ManagerConfig{MaxSimulations: 1})
	defer m.StopAll()

	_, err := m.Start(fastStart())
	require.NoError(t, err)

	// THEN the second start is refused
	_, err = m.Start(fastStart())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// AND capacity frees up when a simulation stops
	infos := m.List()
	require.Len(t, infos, 1)
	require.NoError(t, m.Stop(infos[0].ID))
	_, err = m.Start(fastStart())
	assert.NoError(t, err)
}

func TestManager_StopIsTerminal(t *testing.T) {
	m := NewManager(DefaultManagerConfig())

	id, err := m.Start(fastStart())
	require.NoError(t, err)

	require.NoError(t, m.Stop(id))

	// A stopped simulation is gone: stop again, snapshot, control all fail
	assert.ErrorIs(t, m.Stop(id), ErrNotFound)
	_, err = m.Snapshot(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.ApplyControl(id, "KF-7KL", Setpoints{}), ErrNotFound)
}

func TestManager_PauseFreezesTime(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	id, err := m.Start(fastStart())
	require.NoError(t, err)
	waitFor(t, 2*time.Second, func() bool {
		snap, _ := m.Snapshot(id)
		return snap.SimulationTime > 0
	})

	// WHEN paused
	require.NoError(t, m.Pause(id))
	snap1, err := m.Snapshot(id)
	require.NoError(t, err)

	// THEN simulated time stands still
	time.Sleep(50 * time.Millisecond)
	snap2, err := m.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, snap1.SimulationTime, snap2.SimulationTime)

	info, _ := m.Info(id)
	assert.Equal(t, StatusPaused, info.Status)

	// AND resuming picks the clock back up
	require.NoError(t, m.Resume(id))
	waitFor(t, 2*time.Second, func() bool {
		snap, _ := m.Snapshot(id)
		return snap.SimulationTime > snap1.SimulationTime
	})
}

func TestManager_ControlWhilePaused(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	id, err := m.Start(fastStart())
	require.NoError(t, err)
	require.NoError(t, m.Pause(id))

	// Controls apply inline against the parked simulation
	assert.NoError(t, m.ApplyControl(id, "KF-7KL", Setpoints{RPM: Float(150)}))
	assert.ErrorIs(t, m.ApplyControl(id, "bogus", Setpoints{}), ErrUnknownVessel)

	// The queued setpoint takes effect once stepping resumes
	require.NoError(t, m.Resume(id))
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(id)
		return err == nil && snap.Bioreactors["KF-7KL"].RPM > 0
	})
}

func TestManager_MaxSimTimeCompletes(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	cfg := fastStart()
	cfg.MaxSimTime = 5.0
	id, err := m.Start(cfg)
	require.NoError(t, err)

	// The simulation finishes on its own and stays queryable
	waitFor(t, 2*time.Second, func() bool {
		info, err := m.Info(id)
		return err == nil && info.Status == StatusCompleted
	})
	snap, err := m.Snapshot(id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.SimulationTime, 5.0)

	// Stop still removes it
	require.NoError(t, m.Stop(id))
	assert.ErrorIs(t, m.Stop(id), ErrNotFound)
}

func TestManager_SensorFaultRoundTrip(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	id, err := m.Start(fastStart())
	require.NoError(t, err)

	// GIVEN a stuck pH probe on the production fermentor
	spec := FaultSpec{Type: FaultStuck, Value: Float(3.0)}
	require.NoError(t, m.InjectSensorFault(id, "KF-7KL", "ph", spec))

	// THEN published sensor readings freeze at the stuck value
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(id)
		return err == nil && snap.Sensors["KF-7KL"]["ph"] == 3.0
	})

	// AND clearing the fault restores live readings near the true pH
	require.NoError(t, m.ClearSensorFault(id, "KF-7KL", "ph"))
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(id)
		return err == nil && snap.Sensors["KF-7KL"]["ph"] > 5.0
	})

	require.NoError(t, m.ResetSensorDrift(id, "KF-7KL", "ph"))

	// Unknown sensors are reported as such
	err = m.InjectSensorFault(id, "KF-7KL", "bogus", spec)
	assert.ErrorIs(t, err, ErrSensorNotFound)
}

func TestManager_ControlsSafeAcrossPauseResume(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	id, err := m.Start(fastStart())
	require.NoError(t, err)

	// GIVEN pause/resume cycling in the background
	var wg sync.WaitGroup
	quit := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-quit:
				return
			default:
			}
			_ = m.Pause(id)
			_ = m.Resume(id)
		}
	}()

	// WHEN controls hammer the same simulation
	for i := 0; i < 200; i++ {
		require.NoError(t, m.ApplyControl(id, "KF-7KL", Setpoints{RPM: Float(150)}))
	}
	close(quit)
	wg.Wait()

	// THEN the simulation is intact and still advances
	require.NoError(t, m.Resume(id))
	snap, err := m.Snapshot(id)
	require.NoError(t, err)
	before := snap.SimulationTime
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(id)
		return err == nil && snap.SimulationTime > before
	})
}

func TestManager_ResumeDropsStaleQueuedControls(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	id, err := m.Start(fastStart())
	require.NoError(t, err)
	require.NoError(t, m.Pause(id))

	// GIVEN a queued copy of a control that already ran inline while parked
	s, err := m.get(id)
	require.NoError(t, err)
	var ran atomic.Bool
	s.ctrl <- func() { ran.Store(true) }

	// WHEN the simulation resumes and steps again
	require.NoError(t, m.Resume(id))
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(id)
		return err == nil && snap.SimulationTime > 0
	})

	// THEN the stale copy never executes a second time
	assert.False(t, ran.Load())
}

// steppingBomb panics partway into its run, standing in for physics gone bad.
type steppingBomb struct {
	steps int
}

func (b *steppingBomb) Step(dt float64) {
	b.steps++
	if b.steps >= 3 {
		panic("state vector diverged")
	}
}

func (b *steppingBomb) Snapshot() *Snapshot {
	return &Snapshot{SimulationTime: float64(b.steps)}
}

func (b *steppingBomb) ApplyControl(string, Setpoints) bool  { return true }
func (b *steppingBomb) Sensor(string, string) *VirtualSensor { return nil }

func TestManager_StepPanicFailsOnlyThatSimulation(t *testing.T) {
	m := NewManager(DefaultManagerConfig())
	defer m.StopAll()

	// GIVEN a healthy simulation and one whose physics blow up mid-run
	healthy, err := m.Start(fastStart())
	require.NoError(t, err)
	cfg := fastStart()
	bad, err := m.startWith(cfg, &steppingBomb{})
	require.NoError(t, err)

	// THEN the failing one lands in the failed state and stops advancing
	waitFor(t, 2*time.Second, func() bool {
		info, err := m.Info(bad)
		return err == nil && info.Status == StatusFailed
	})
	snap1, err := m.Snapshot(bad)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	snap2, err := m.Snapshot(bad)
	require.NoError(t, err)
	assert.Equal(t, snap1.SimulationTime, snap2.SimulationTime)

	// AND its sibling keeps running untouched
	info, err := m.Info(healthy)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, info.Status)
	waitFor(t, 2*time.Second, func() bool {
		snap, err := m.Snapshot(healthy)
		return err == nil && snap.SimulationTime > 0
	})

	// Stop still removes the failed record
	require.NoError(t, m.Stop(bad))
	assert.ErrorIs(t, m.Stop(bad), ErrNotFound)
}

func TestManager_RealtimeFactorClamped(t *testing.T) {
	m := NewManager(ManagerConfig{MaxRealtimeFactor: 10.0})
	defer m.StopAll()

	cfg := fastStart()
	cfg.RealtimeFactor = 1e9
	id, err := m.Start(cfg)
	require.NoError(t, err)

	info, err := m.Info(id)
	require.NoError(t, err)
	assert.Equal(t, 10.0, info.RealtimeFactor)
}
