package plant

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Status is the lifecycle state of a managed simulation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// SimulationKind selects which orchestrator a simulation runs.
type SimulationKind string

const (
	KindFermentation SimulationKind = "fermentation"
	KindPowerPlant   SimulationKind = "power_plant"
)

// Orchestrator is the contract both simulation kinds satisfy. Implementations
// are single-threaded; the Manager guarantees all calls happen on the
// simulation's own goroutine (or with that goroutine parked).
type Orchestrator interface {
	Step(dt float64)
	Snapshot() *Snapshot
	ApplyControl(vessel string, sp Setpoints) bool
	Sensor(vessel, variable string) *VirtualSensor
}

// StartConfig parameterizes one simulation started through the Manager.
type StartConfig struct {
	Kind SimulationKind `json:"kind"`
	Mode string         `json:"mode,omitempty"`

	// Fermentation
	Media string `json:"media,omitempty"`

	// Power plant
	DigestionFeedstock  string `json:"digestion_feedstock,omitempty"`
	CombustionFeedstock string `json:"combustion_feedstock,omitempty"`

	DT             float64 `json:"dt,omitempty"`              // seconds per physics step
	RealtimeFactor float64 `json:"realtime_factor,omitempty"` // sim seconds per wall second
	MaxSimTime     float64 `json:"max_sim_time,omitempty"`    // stop after this much sim time; 0 = unbounded
	Seed           uint64  `json:"seed,omitempty"`
}

// ManagerConfig bounds the Manager's resource use.
type ManagerConfig struct {
	MaxSimulations    int     `yaml:"max_simulations"`
	MaxRealtimeFactor float64 `yaml:"max_realtime_factor"`
	DefaultDT         float64 `yaml:"default_dt"`
}

// DefaultManagerConfig returns the service defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxSimulations:    16,
		MaxRealtimeFactor: 3600.0,
		DefaultDT:         1.0,
	}
}

// SimulationInfo is the List view of one managed simulation.
type SimulationInfo struct {
	ID             string         `json:"id"`
	Kind           SimulationKind `json:"kind"`
	Mode           string         `json:"mode"`
	Status         Status         `json:"status"`
	SimulationTime float64        `json:"simulation_time_s"`
	RealtimeFactor float64        `json:"realtime_factor"`
	DT             float64        `json:"dt"`
	StartedAt      time.Time      `json:"started_at"`
}

// simulation is one managed run: the orchestrator, its stepping goroutine,
// and the channels that route controls onto that goroutine.
type simulation struct {
	id   string
	kind SimulationKind
	mode string

	orch Orchestrator
	dt   float64
	rtf  float64
	max  float64

	// lc serializes lifecycle transitions (pause, resume, stop) with control
	// delivery, so the orchestrator is never touched from two goroutines at
	// once even across a park and relaunch.
	lc      sync.Mutex
	stopped bool // set by Stop under lc; a stopped simulation never relaunches

	// ctrl carries closures onto the stepping goroutine; drained every tick
	// before the physics step. Replaced on resume so closures that already ran
	// inline while parked cannot run a second time.
	ctrl     chan func()
	stop     chan struct{} // closed to park the goroutine (pause or stop)
	stopOnce *sync.Once
	done     chan struct{} // closed when the goroutine has exited

	snap      atomic.Pointer[Snapshot]
	status    atomic.Value // Status
	startedAt time.Time

	log *logrus.Entry
}

func (s *simulation) currentStatus() Status { return s.status.Load().(Status) }

// park closes the stop channel exactly once and waits for the goroutine.
func (s *simulation) park() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Manager owns all live simulations: identifier allocation, capacity limits,
// and routing of every external operation onto the right goroutine.
type Manager struct {
	cfg ManagerConfig

	mu   sync.Mutex
	sims map[string]*simulation

	log *logrus.Entry
}

// NewManager builds an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.MaxSimulations <= 0 {
		cfg.MaxSimulations = DefaultManagerConfig().MaxSimulations
	}
	if cfg.MaxRealtimeFactor <= 0 {
		cfg.MaxRealtimeFactor = DefaultManagerConfig().MaxRealtimeFactor
	}
	if cfg.DefaultDT <= 0 {
		cfg.DefaultDT = DefaultManagerConfig().DefaultDT
	}
	return &Manager{
		cfg:  cfg,
		sims: make(map[string]*simulation),
		log:  logrus.WithField("component", "manager"),
	}
}

// buildOrchestrator constructs the orchestrator for a start request.
func buildOrchestrator(cfg StartConfig) (Orchestrator, error) {
	switch cfg.Kind {
	case KindFermentation:
		return NewFacility(FacilityConfig{
			Mode:  FacilityMode(cfg.Mode),
			Media: cfg.Media,
			Seed:  cfg.Seed,
		}), nil
	case KindPowerPlant:
		return NewPowerPlant(PlantConfig{
			Mode:                PlantMode(cfg.Mode),
			DigestionFeedstock:  cfg.DigestionFeedstock,
			CombustionFeedstock: cfg.CombustionFeedstock,
			Seed:                cfg.Seed,
		})
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, cfg.Kind)
	}
}

// Start creates a simulation and begins stepping it. Returns the new
// simulation's identifier.
func (m *Manager) Start(cfg StartConfig) (string, error) {
	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return "", err
	}
	return m.startWith(cfg, orch)
}

// startWith registers and launches a simulation over an already built
// orchestrator.
func (m *Manager) startWith(cfg StartConfig, orch Orchestrator) (string, error) {
	if cfg.DT <= 0 {
		cfg.DT = m.cfg.DefaultDT
	}
	if cfg.RealtimeFactor <= 0 {
		cfg.RealtimeFactor = 1.0
	}
	cfg.RealtimeFactor = clamp(cfg.RealtimeFactor, 0.1, m.cfg.MaxRealtimeFactor)

	s := &simulation{
		id:        uuid.NewString(),
		kind:      cfg.Kind,
		mode:      orch.Snapshot().Mode,
		orch:      orch,
		dt:        cfg.DT,
		rtf:       cfg.RealtimeFactor,
		max:       cfg.MaxSimTime,
		ctrl:      make(chan func(), 64),
		stop:      make(chan struct{}),
		stopOnce:  new(sync.Once),
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	s.log = m.log.WithFields(logrus.Fields{"sim": s.id, "kind": s.kind, "mode": s.mode})
	s.snap.Store(orch.Snapshot())
	s.status.Store(StatusRunning)

	m.mu.Lock()
	if len(m.sims) >= m.cfg.MaxSimulations {
		m.mu.Unlock()
		return "", ErrCapacityExceeded
	}
	m.sims[s.id] = s
	m.mu.Unlock()

	m.launch(s)
	s.log.WithFields(logrus.Fields{"dt": s.dt, "rtf": s.rtf}).Info("simulation started")
	return s.id, nil
}

// launch spawns the stepping goroutine over the simulation's current
// control/stop/done channel generation.
func (m *Manager) launch(s *simulation) {
	ctrl, stop, done := s.ctrl, s.stop, s.done

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.status.Store(StatusFailed)
				s.log.WithField("panic", r).Error("simulation failed")
			}
		}()

		interval := time.Duration(float64(time.Second) * s.dt / s.rtf)
		if interval < time.Millisecond {
			interval = time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for drained := false; !drained; {
					select {
					case fn := <-ctrl:
						fn()
					default:
						drained = true
					}
				}
				s.orch.Step(s.dt)
				snap := s.orch.Snapshot()
				s.snap.Store(snap)
				if s.max > 0 && snap.SimulationTime >= s.max {
					s.status.Store(StatusCompleted)
					s.log.WithField("sim_time_s", snap.SimulationTime).Info("simulation completed")
					return
				}
			}
		}
	}()
}

func (m *Manager) get(id string) (*simulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sims[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Snapshot returns the most recently published snapshot for a simulation.
func (m *Manager) Snapshot(id string) (*Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return s.snap.Load(), nil
}

// Info returns the List view of one simulation.
func (m *Manager) Info(id string) (SimulationInfo, error) {
	s, err := m.get(id)
	if err != nil {
		return SimulationInfo{}, err
	}
	return m.info(s), nil
}

func (m *Manager) info(s *simulation) SimulationInfo {
	return SimulationInfo{
		ID:             s.id,
		Kind:           s.kind,
		Mode:           s.mode,
		Status:         s.currentStatus(),
		SimulationTime: s.snap.Load().SimulationTime,
		RealtimeFactor: s.rtf,
		DT:             s.dt,
		StartedAt:      s.startedAt,
	}
}

// List returns the info view of every live simulation.
func (m *Manager) List() []SimulationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SimulationInfo, 0, len(m.sims))
	for _, s := range m.sims {
		out = append(out, m.info(s))
	}
	return out
}

// exec runs fn on the simulation's goroutine when it is stepping, or inline
// when the goroutine is parked. Either way fn never races the physics step:
// holding lc keeps a concurrent resume from relaunching the goroutine while
// fn runs inline, and keeps the running-path delivery pinned to one channel
// generation.
func (m *Manager) exec(s *simulation, fn func()) {
	s.lc.Lock()
	defer s.lc.Unlock()

	if s.currentStatus() != StatusRunning {
		fn()
		return
	}

	done := make(chan struct{})
	select {
	case s.ctrl <- func() { fn(); close(done) }:
	case <-s.done:
		// Goroutine exited before accepting the control; safe inline.
		fn()
		return
	}

	select {
	case <-done:
	case <-s.done:
		// Goroutine exited; it may or may not have drained fn first.
		select {
		case <-done:
		default:
			fn()
		}
	}
}

// ApplyControl routes sparse setpoints to a vessel of a live simulation.
func (m *Manager) ApplyControl(id, vessel string, sp Setpoints) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	var ok bool
	m.exec(s, func() { ok = s.orch.ApplyControl(vessel, sp) })
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVessel, vessel)
	}
	return nil
}

// Pause parks a running simulation's goroutine. Snapshot and control access
// keep working; simulated time stands still.
func (m *Manager) Pause(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}

	s.lc.Lock()
	defer s.lc.Unlock()
	if s.stopped {
		return ErrNotFound
	}
	if s.currentStatus() != StatusRunning {
		return nil
	}
	s.park()
	if s.currentStatus() == StatusRunning {
		s.status.Store(StatusPaused)
		s.log.Info("simulation paused")
	}
	return nil
}

// Resume restarts a paused simulation's stepping goroutine.
func (m *Manager) Resume(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}

	s.lc.Lock()
	defer s.lc.Unlock()
	if s.stopped {
		return ErrNotFound
	}
	if s.currentStatus() != StatusPaused {
		return nil
	}

	// Controls delivered while parked ran inline; drop any copies still
	// queued and start a fresh channel generation for the new goroutine.
	s.ctrl = make(chan func(), 64)
	s.stop = make(chan struct{})
	s.stopOnce = new(sync.Once)
	s.done = make(chan struct{})
	s.status.Store(StatusRunning)
	m.launch(s)
	s.log.Info("simulation resumed")
	return nil
}

// Stop halts a simulation and removes it. A second Stop with the same id
// returns ErrNotFound.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	s, ok := m.sims[id]
	if ok {
		delete(m.sims, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	s.lc.Lock()
	s.stopped = true
	s.park()
	s.lc.Unlock()
	s.log.Info("simulation stopped")
	return nil
}

// StopAll stops every live simulation, for service shutdown.
func (m *Manager) StopAll() {
	for _, info := range m.List() {
		_ = m.Stop(info.ID)
	}
}

// sensorOp runs fn against a named sensor on the simulation's goroutine.
func (m *Manager) sensorOp(id, vessel, variable string, fn func(*VirtualSensor)) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	var opErr error
	m.exec(s, func() {
		sensor := s.orch.Sensor(vessel, variable)
		if sensor == nil {
			opErr = fmt.Errorf("%w: %s/%s", ErrSensorNotFound, vessel, variable)
			return
		}
		fn(sensor)
	})
	return opErr
}

// InjectSensorFault applies a fault to one sensor of a live simulation.
func (m *Manager) InjectSensorFault(id, vessel, variable string, spec FaultSpec) error {
	return m.sensorOp(id, vessel, variable, func(sn *VirtualSensor) { sn.InjectFault(spec) })
}

// ClearSensorFault removes any injected fault from one sensor.
func (m *Manager) ClearSensorFault(id, vessel, variable string) error {
	return m.sensorOp(id, vessel, variable, func(sn *VirtualSensor) { sn.ClearFault() })
}

// ResetSensorDrift recalibrates one sensor, zeroing accumulated drift.
func (m *Manager) ResetSensorDrift(id, vessel, variable string) error {
	return m.sensorOp(id, vessel, variable, func(sn *VirtualSensor) { sn.ResetDrift() })
}
