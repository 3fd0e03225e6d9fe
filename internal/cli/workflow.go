package cli

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/lock"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/metrics"
	"github.com/rileyhilliard/rbnvfd/internal/monitor"
	"github.com/rileyhilliard/rbnvfd/internal/pipeline"
	"github.com/rileyhilliard/rbnvfd/internal/radio"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/rileyhilliard/rbnvfd/internal/vfd"
)

// loadConfig finds and loads config, applies the global flag overrides and
// validates the result.
func loadConfig(requireCallsign bool) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, "", err
	}

	if callsignFlag != "" {
		cfg.Callsign = strings.ToUpper(strings.TrimSpace(callsignFlag))
	}
	if metricsListen != "" {
		cfg.Metrics.Listen = metricsListen
	}

	var opts []config.ValidationOption
	if requireCallsign {
		opts = append(opts, config.RequireCallsign())
	}
	if err := config.Validate(cfg, opts...); err != nil {
		return nil, path, err
	}
	if err := config.ValidateMetricsListen(cfg.Metrics.Listen); err != nil {
		return nil, path, err
	}

	if !noColor {
		ui.ConfigureColor(cfg.Output.Color, os.Stdout)
	}
	return cfg, path, nil
}

// StationOptions configures station setup.
type StationOptions struct {
	// Log builds the logger for a component tag such as "[rbn]". Nil logs
	// through the standard log package.
	Log func(prefix string) logger.Logger

	// Opener replaces the serial port opener. Nil uses the real device.
	Opener vfd.Opener

	// NoDevice skips the serial display even when a port is configured.
	NoDevice bool

	// Now replaces the clock for the ingest client and the driver.
	Now func() time.Time

	// LockDir holds the device lock. Empty uses the system temp directory.
	LockDir string
}

// Station wires the spot client, store, scheduler, display and radio
// together. Callers Start it, then Close it when done.
type Station struct {
	Config  *config.Config
	Client  *rbn.Client
	Store   *spot.Store
	Driver  *pipeline.Driver
	Device  *vfd.Display // nil when no port is configured
	Preview *vfd.Preview
	Radio   radio.Controller

	log     logger.Logger
	now     func() time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lockDir string
	devLock *lock.Lock

	metricsSrv *http.Server
	metricsLn  net.Listener
}

// NewStation builds a stopped station from cfg.
func NewStation(cfg *config.Config, opts StationOptions) (*Station, error) {
	newLog := opts.Log
	if newLog == nil {
		newLog = logger.NewEnvLogger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	order, ok := spot.ParseOrder(cfg.Spots.Sort)
	if !ok {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown sort order %q", cfg.Spots.Sort),
			"Use 'frequency' or 'recency'")
	}

	rc, err := radio.New(radio.Options{
		Backend: cfg.Radio.Backend,
		Addr:    cfg.Radio.Addr,
		Timeout: cfg.Radio.Timeout,
		Rig:     cfg.Radio.Rig,
	}, newLog("[radio]"))
	if err != nil {
		return nil, err
	}

	s := &Station{
		Config:  cfg,
		Store:   spot.NewStore(),
		Preview: vfd.NewPreview(),
		Radio:   rc,
		log:     newLog("[rbnvfd]"),
		now:     now,
		lockDir: opts.LockDir,
	}

	s.Client = rbn.NewClient(rbn.Options{
		Addr:         cfg.RBN.Addr,
		DialTimeout:  cfg.RBN.DialTimeout,
		ReadTimeout:  cfg.RBN.ReadTimeout,
		LoginTimeout: cfg.RBN.LoginTimeout,
		EventBuffer:  cfg.RBN.EventBuffer,
		Now:          now,
	}, newLog("[rbn]"))

	writer := vfd.Multi{s.Preview}
	if cfg.Display.Port != "" && !opts.NoDevice {
		devOpts := []vfd.Option{vfd.WithLogger(newLog("[vfd]"))}
		if opts.Opener != nil {
			devOpts = append(devOpts, vfd.WithOpener(opts.Opener))
		}
		s.Device = vfd.New(cfg.Display.Port, devOpts...)
		writer = vfd.Multi{s.Device, s.Preview}
	}

	seed := cfg.Display.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sched := display.New(display.Config{
		ScrollInterval: cfg.Display.ScrollInterval,
		ForceIdle:      cfg.Display.ForceIdle,
	}, rand.NewSource(seed))

	s.Driver = pipeline.New(s.Store, sched, writer, pipeline.Options{
		MaxAge:          cfg.Spots.MaxAge,
		MinSNR:          cfg.Spots.MinSNR,
		Order:           order,
		RefreshInterval: cfg.Display.RefreshInterval,
		PurgeInterval:   cfg.Spots.PurgeInterval,
		Now:             now,
	}, newLog("[display]"))

	return s, nil
}

// Start locks and opens the display, starts the driver and metrics endpoint,
// and logs in to the RBN when a callsign is configured. A display held by
// another rbnvfd is an error. A missing display is logged, not fatal: frames
// go to the preview until it is reopened.
func (s *Station) Start(ctx context.Context) error {
	if s.Device != nil {
		l, err := lock.Acquire(s.lockDir, s.Device.Path())
		if err != nil {
			return err
		}
		s.devLock = l
		if err := s.Device.Open(); err != nil {
			s.log.Warn("%s", errors.Summary(err))
		}
	}

	if err := s.startMetrics(); err != nil {
		s.releaseDevice()
		return err
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Driver.Run(ctx, s.Client.Events())
	}()

	if s.Config.Callsign != "" {
		if err := s.Client.Connect(s.Config.Callsign); err != nil {
			s.Close()
			return err
		}
	}
	return nil
}

func (s *Station) startMetrics() error {
	addr := s.Config.Metrics.Listen
	if addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Cannot listen on %s for metrics", addr),
			"Pick a free port with --metrics-listen or clear metrics.listen")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	s.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.metricsLn = ln

	go func() {
		if err := s.metricsSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("metrics server: %v", err)
		}
	}()
	s.log.Info("serving metrics on http://%s/metrics", ln.Addr())
	return nil
}

// MetricsAddr returns the bound metrics address, or "" when disabled.
func (s *Station) MetricsAddr() string {
	if s.metricsLn == nil {
		return ""
	}
	return s.metricsLn.Addr().String()
}

// Close stops the driver and releases the connection, device and radio.
func (s *Station) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	_ = s.Client.Close()
	s.releaseDevice()
	s.Radio.Disconnect()

	if s.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.metricsSrv.Shutdown(ctx)
		s.metricsSrv = nil
	}
}

func (s *Station) releaseDevice() {
	if s.Device != nil {
		_ = s.Device.Close()
	}
	if err := s.devLock.Release(); err != nil {
		s.log.Warn("%s", errors.Summary(err))
	}
	s.devLock = nil
}

// Recover reconnects a dropped RBN session and reopens a lost display.
// It is what SIGHUP does in headless mode.
func (s *Station) Recover() {
	if s.Client.Status().State == rbn.Disconnected && s.Config.Callsign != "" {
		if err := s.Connect(); err != nil {
			s.log.Warn("reconnect: %s", errors.Summary(err))
		}
	}
	if s.Device != nil && !s.Device.IsOpen() {
		if err := s.ReopenDisplay(); err != nil {
			s.log.Warn("%s", errors.Summary(err))
		}
	}
}

// Snapshot implements monitor.Station.
func (s *Station) Snapshot() monitor.Snapshot {
	snap := monitor.Snapshot{
		Time:      s.now(),
		Callsign:  s.Config.Callsign,
		Addr:      s.Client.Addr(),
		Conn:      s.Client.Status(),
		Stats:     s.Client.Stats(),
		Spots:     s.Driver.Visible(),
		Frame:     s.Preview.Frame(),
		Mode:      s.Driver.State().Mode,
		ForceIdle: s.Driver.ForceIdle(),
		DeviceErr: s.Driver.LastError(),

		Radio:          s.Radio.Name(),
		RadioConnected: s.Radio.IsConnected(),
	}
	if s.Device != nil {
		snap.DevicePath = s.Device.Path()
		snap.DeviceOpen = s.Device.IsOpen()
	}
	return snap
}

// Connect implements monitor.Station.
func (s *Station) Connect() error {
	return s.Client.Connect(s.Config.Callsign)
}

// Disconnect implements monitor.Station.
func (s *Station) Disconnect() {
	s.Client.Disconnect()
}

// ReopenDisplay implements monitor.Station.
func (s *Station) ReopenDisplay() error {
	if s.Device == nil {
		return errors.New(errors.ErrNotConfigured,
			"No display port configured",
			"Set 'display.port' with 'rbnvfd config set display.port /dev/ttyUSB0'")
	}
	if err := s.Device.Reopen(); err != nil {
		return err
	}
	s.Driver.Resync()
	return nil
}

// SetForceIdle implements monitor.Station.
func (s *Station) SetForceIdle(on bool) {
	s.Driver.SetForceIdle(on)
}

// Tune implements monitor.Station.
func (s *Station) Tune(sp spot.AggregatedSpot) (string, error) {
	mode := radio.ModeFromSpot(sp.Mode, sp.FrequencyKHz)
	if err := tuneRadio(s.Radio, sp.FrequencyKHz, mode); err != nil {
		return "", err
	}
	return fmt.Sprintf("Tuned %s %.1f kHz %s", sp.Call, sp.FrequencyKHz, mode), nil
}

// tuneRadio connects rc if needed and tunes it, recording the outcome.
func tuneRadio(rc radio.Controller, freqKHz float64, mode radio.Mode) error {
	var err error
	if !rc.IsConnected() {
		err = rc.Connect()
	}
	if err == nil {
		err = rc.Tune(freqKHz, mode)
	}
	metrics.RecordTune(rc.Name(), err)
	return err
}
