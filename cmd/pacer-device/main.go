// Command pacer-device runs the bench pacemaker device simulator.
//
// It hosts the real pacing core (parameter store, sense/pace channels,
// mode state machine) behind the DCM link: a framed TCP server speaking
// the command/telemetry frame protocol, advertised over mDNS so the DCM
// can find it. An optional intrinsic-beat generator injects simulated
// heart activity so demand modes have something to inhibit on.
//
// Usage:
//
//	pacer-device [flags]
//
// Flags:
//
//	-config string          Configuration file path (YAML)
//	-port int               DCM link listen port (default 7350)
//	-log-file string        CBOR event log path (default "pacer-events.cbor")
//	-intrinsic-rate float   Simulated intrinsic heart rate in bpm (0 = none)
//	-no-mdns                Disable mDNS advertising
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/openpacer/pacer-go/pkg/discovery"
	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/pacing"
	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/telemetry"
	"github.com/openpacer/pacer-go/pkg/timing"
	"github.com/openpacer/pacer-go/pkg/transport"
	"github.com/openpacer/pacer-go/pkg/version"
)

// Model is the simulated device model name.
const Model = "PACER-100"

// Config holds the device configuration.
type Config struct {
	// DeviceID is the device UUID. Generated when empty.
	DeviceID string `yaml:"device_id"`

	// Port is the DCM link listen port.
	Port int `yaml:"port"`

	// LogFile is the CBOR event log path. Empty disables the file log.
	LogFile string `yaml:"log_file"`

	// IntrinsicRate is the simulated intrinsic heart rate in bpm.
	// Zero disables the beat generator.
	IntrinsicRate float64 `yaml:"intrinsic_rate"`

	// DisableMDNS turns off bench discovery advertising.
	DisableMDNS bool `yaml:"disable_mdns"`
}

func defaultConfig() Config {
	return Config{
		Port:    7350,
		LogFile: "pacer-events.cbor",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "configuration file path (YAML)")
	port := flag.Int("port", 0, "DCM link listen port")
	logFile := flag.String("log-file", "", "CBOR event log path")
	intrinsicRate := flag.Float64("intrinsic-rate", -1, "simulated intrinsic heart rate in bpm (0 = none)")
	noMDNS := flag.Bool("no-mdns", false, "disable mDNS advertising")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file.
	if *port != 0 {
		cfg.Port = *port
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *intrinsicRate >= 0 {
		cfg.IntrinsicRate = *intrinsicRate
	}
	if *noMDNS {
		cfg.DisableMDNS = true
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.New().String()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "pacer-device: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	// Event sinks: ring buffer for telemetry, optional file log, and the
	// fault push path to a connected DCM.
	memLog := log.NewMemoryLogger(log.DefaultMemoryCapacity)
	sinks := []log.Logger{memLog}

	if cfg.LogFile != "" {
		fileLog, err := log.NewFileLogger(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer fileLog.Close()
		sinks = append(sinks, fileLog)
	}

	store := params.NewStore()

	gateway, err := telemetry.NewGateway(telemetry.Config{
		Store:           store,
		Events:          memLog,
		DeviceID:        cfg.DeviceID,
		Model:           Model,
		FirmwareVersion: version.Firmware,
	})
	if err != nil {
		return err
	}

	server := transport.NewServer(gateway)
	sinks = append(sinks, telemetry.NewFaultForwarder(server.Push))

	driver := pacing.NewSimDriver()
	engine, err := pacing.NewEngine(pacing.Config{
		Timers:   timing.NewSystemTimers(),
		Store:    store,
		Driver:   driver,
		Logger:   log.NewMultiLogger(sinks...),
		DeviceID: cfg.DeviceID,
	})
	if err != nil {
		return err
	}
	driver.SetAckSink(engine.PulseAcked)

	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	addr, err := server.Listen(fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer server.Close()

	if !cfg.DisableMDNS {
		adv, err := discovery.Advertise(discovery.DeviceInfo{
			DeviceID: cfg.DeviceID,
			Model:    Model,
			Firmware: version.Firmware,
		}, cfg.Port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mDNS advertising unavailable: %v\n", err)
		} else {
			defer adv.Stop()
		}
	}

	stopBeats := make(chan struct{})
	if cfg.IntrinsicRate > 0 {
		go generateIntrinsicBeats(engine, store, cfg.IntrinsicRate, stopBeats)
	}
	defer close(stopBeats)

	fmt.Printf("pacer-device %s\n", version.Firmware)
	fmt.Printf("  device ID: %s\n", cfg.DeviceID)
	fmt.Printf("  DCM link:  %s\n", addr)
	fmt.Printf("  mode:      %s\n", store.Mode())
	if cfg.IntrinsicRate > 0 {
		fmt.Printf("  intrinsic: %.0f bpm (simulated)\n", cfg.IntrinsicRate)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("\nshutting down")
	return nil
}

// generateIntrinsicBeats injects simulated heart activity on the paced
// chamber at a steady rate, standing in for the sense hardware interrupt.
func generateIntrinsicBeats(engine *pacing.Engine, store *params.Store, bpm float64, stop <-chan struct{}) {
	interval := params.IntervalForRate(bpm)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			engine.SenseDetected(pacing.PacedChamber(store.Mode()))
		case <-stop:
			return
		}
	}
}
