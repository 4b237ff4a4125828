package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bioplant-sim/bioplant-sim/plant"
	"github.com/bioplant-sim/bioplant-sim/server"
)

var (
	logLevel string // Log verbosity level

	// run flags
	kind                string  // fermentation or power_plant
	mode                string  // orchestrator mode within the kind
	media               string  // culture media for fermentation runs
	digestionFeedstock  string  // digester feedstock for power plant runs
	combustionFeedstock string  // boiler feedstock for power plant runs
	duration            float64 // simulated seconds to run
	dt                  float64 // physics timestep in seconds
	seed                uint64  // Seed for sensor noise and feed variation

	// serve flags
	configPath string // YAML service config
	listenAddr string // overrides the config listen address
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "bioplant-sim",
	Short: "Process simulator for fermentation and biomass power plants",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one simulation synchronously and prints the final snapshot
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation to completion and print the final snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		orch, err := buildOrchestrator()
		if err != nil {
			logrus.Fatalf("Could not build simulation: %v", err)
		}

		logrus.Infof("Running %s/%s for %.0fs at dt=%.1fs", kind, mode, duration, dt)
		startTime := time.Now()
		orch.RunFor(duration, dt)
		logrus.Infof("Simulation complete in %v wall time.", time.Since(startTime))

		out, err := json.MarshalIndent(orch.Snapshot(), "", "  ")
		if err != nil {
			logrus.Fatalf("Could not encode snapshot: %v", err)
		}
		os.Stdout.Write(append(out, '\n'))
	},
}

// runnable is what the run path needs from either orchestrator.
type runnable interface {
	RunFor(durationS, dt float64)
	Snapshot() *plant.Snapshot
}

func buildOrchestrator() (runnable, error) {
	switch plant.SimulationKind(kind) {
	case plant.KindFermentation:
		return plant.NewFacility(plant.FacilityConfig{
			Mode:  plant.FacilityMode(mode),
			Media: media,
			Seed:  seed,
		}), nil
	case plant.KindPowerPlant:
		return plant.NewPowerPlant(plant.PlantConfig{
			Mode:                plant.PlantMode(mode),
			DigestionFeedstock:  digestionFeedstock,
			CombustionFeedstock: combustionFeedstock,
			Seed:                seed,
		})
	default:
		return nil, errors.New("kind must be fermentation or power_plant")
	}
}

// serveCmd runs the HTTP service hosting the simulation manager
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation manager over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadServiceConfig(configPath)
		if err != nil {
			logrus.Fatalf("Could not load config: %v", err)
		}
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}

		mgr := plant.NewManager(cfg.Manager)
		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: server.NewHandler(mgr),
		}

		go func() {
			logrus.Infof("Listening on %s", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("Server failed: %v", err)
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		logrus.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		mgr.StopAll()
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&kind, "kind", "fermentation", "Simulation kind (fermentation, power_plant)")
	runCmd.Flags().StringVar(&mode, "mode", "single_7kl", "Simulation mode within the kind")
	runCmd.Flags().StringVar(&media, "media", "", "Culture media name (fermentation)")
	runCmd.Flags().StringVar(&digestionFeedstock, "digestion-feedstock", "", "Digester feedstock name (power_plant)")
	runCmd.Flags().StringVar(&combustionFeedstock, "combustion-feedstock", "", "Boiler feedstock name (power_plant)")
	runCmd.Flags().Float64Var(&duration, "duration", 3600, "Simulated seconds to run")
	runCmd.Flags().Float64Var(&dt, "dt", 1.0, "Physics timestep in seconds")
	runCmd.Flags().Uint64Var(&seed, "seed", 42, "Seed for sensor noise and feed variation")

	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML service config")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
