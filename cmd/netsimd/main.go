// Command netsimd runs the point-to-point link simulator and
// link-state routing core daemon: a static topology loaded from
// config, a discrete-event kernel driving packet delivery, and a
// control-plane HTTP API for introspecting and re-triggering routing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/go-netsim/netsimd/internal/config"
	"github.com/go-netsim/netsimd/internal/control"
	netsimmetrics "github.com/go-netsim/netsimd/internal/metrics"
	"github.com/go-netsim/netsimd/internal/p2p"
	"github.com/go-netsim/netsimd/internal/packet"
	"github.com/go-netsim/netsimd/internal/routing"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/simqueue"
	"github.com/go-netsim/netsimd/internal/simtime"
	"github.com/go-netsim/netsimd/internal/topology"
	appversion "github.com/go-netsim/netsimd/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to
// drain active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// kernelPumpInterval is how often the daemon advances the simulation
// kernel's virtual clock to track wall-clock time. The kernel itself
// is single-threaded and cooperative, driven entirely by its own
// discrete-event loop with no notion of real time; this pump is the
// thing that actually drives it forward while the daemon is alive, the
// way a real link's wire clock is driven by the NIC hardware rather
// than by the packets on it.
const kernelPumpInterval = 10 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("netsimd starting",
		slog.String("version", appversion.Version),
		slog.String("control_addr", cfg.Control.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
		slog.Int("links", len(cfg.Links)),
	)

	reg := prometheus.NewRegistry()
	collector := netsimmetrics.NewCollector(reg)

	kernel := simkernel.New()
	registry, lsdb := buildTopology(cfg, kernel, collector, logger)

	installed := registry.InitializeRoutes(lsdb)
	logger.Info("initial route computation complete",
		slog.Int("nodes", registry.Len()),
		slog.Int("lsas_installed", installed),
	)

	if err := runServers(cfg, kernel, registry, lsdb, reg, collector, logger, *configPath, logLevel); err != nil {
		logger.Error("netsimd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("netsimd stopped")
	return 0
}

// runServers sets up and runs the control-plane HTTP API, the metrics
// HTTP server, and the kernel pump loop under an errgroup with a
// signal-aware context for graceful shutdown.
func runServers(
	cfg *config.Config,
	kernel *simkernel.Kernel,
	registry *topology.Registry,
	lsdb *routing.LSDB,
	reg *prometheus.Registry,
	collector *netsimmetrics.Collector,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	api := control.NewAPI(registry, lsdb, collector, kernel, logger)
	controlSrv := control.NewServer(cfg.Control.Addr, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	startHTTPServers(gCtx, g, cfg, controlSrv, metricsSrv, logger)

	g.Go(func() error {
		runKernelPump(gCtx, kernel)
		return nil
	})

	startReloadGoroutine(gCtx, g, configPath, logLevel, logger)

	notifyReady(logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, controlSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// startHTTPServers registers the control and metrics HTTP server
// goroutines.
func startHTTPServers(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	controlSrv *http.Server,
	metricsSrv *http.Server,
	logger *slog.Logger,
) {
	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("control server listening", slog.String("addr", cfg.Control.Addr))
		return listenAndServe(ctx, &lc, controlSrv, cfg.Control.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(ctx, &lc, metricsSrv, cfg.Metrics.Addr)
	})
}

// startReloadGoroutine registers the SIGHUP handler that reloads the
// dynamic log level. Full topology reload on SIGHUP is not
// implemented: rebuilding a live topology out from under in-flight
// kernel events would violate the device-destruction-while-events-are-
// pending ownership rule this simulator relies on, so only the log
// level (which has no such lifetime coupling) is live-reloadable.
func startReloadGoroutine(
	ctx context.Context,
	g *errgroup.Group,
	configPath string,
	logLevel *slog.LevelVar,
	logger *slog.Logger,
) {
	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)

	g.Go(func() error {
		defer signal.Stop(sigHUP)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sigHUP:
				logger.Info("received SIGHUP, reloading log level")
				reloadLogLevel(configPath, logLevel, logger)
			}
		}
	})
}

func reloadLogLevel(configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()),
	)
}

// runKernelPump advances the simulation kernel's virtual clock in
// lockstep with wall-clock time until ctx is cancelled, so link
// activity scheduled through the control API (or by demo traffic)
// actually plays out while the daemon runs.
func runKernelPump(ctx context.Context, kernel *simkernel.Kernel) {
	start := wallClockNow()
	ticker := time.NewTicker(kernelPumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			kernel.RunUntil(now.Sub(start))
		}
	}
}

// wallClockNow is the one place main wraps time.Now, so the kernel
// pump's reference point is easy to find in review.
func wallClockNow() time.Time { return time.Now() }

// -------------------------------------------------------------------------
// Topology construction
// -------------------------------------------------------------------------

// macCounter hands out deterministic, distinct MAC addresses for
// devices built from config: every point-to-point device carries the
// same broadcast capability flags and otherwise doesn't care what
// address it carries, so a locally-administered counter (the "02:"
// OUI prefix) is sufficient.
var macCounter atomic.Uint64

func nextMacAddr() string {
	n := macCounter.Add(1)
	return fmt.Sprintf("02:00:00:00:%02x:%02x", byte(n>>8), byte(n))
}

// metricsObservers adapts the collector to the queue/device/FSM
// observer interfaces each simulator component exposes, so metrics
// wiring lives in one place instead of scattered across the topology
// builder.
type metricsObservers struct {
	collector *netsimmetrics.Collector
	device    string
}

func (o metricsObservers) OnEnqueue(depth int) { o.collector.SetQueueDepth(o.device, depth) }
func (o metricsObservers) OnDequeue(depth int) { o.collector.SetQueueDepth(o.device, depth) }
func (o metricsObservers) OnDrop()             { o.collector.IncPacketsDropped(o.device) }

func (o metricsObservers) OnReceive(dev *p2p.NetDevice, _ packet.Packet) {
	o.collector.IncPacketsReceived(dev.Name())
}

func (o metricsObservers) OnTransition(dev *p2p.NetDevice, from, to p2p.State) {
	o.collector.RecordTransmitterTransition(dev.Name(), from.String(), to.String())
	if from == p2p.StateReady && to == p2p.StateBusy {
		o.collector.IncPacketsTransmitted(dev.Name())
	}
}

// buildTopology constructs every node, device, channel, and router
// described by cfg.Links, wiring each device's queue/FSM/rx observers
// to collector, then returns the populated registry and an empty LSDB
// ready for InitializeRoutes. Construction order is configure
// ifg/queue, then Attach, which copies the channel's rate and marks the
// link up.
func buildTopology(
	cfg *config.Config,
	kernel *simkernel.Kernel,
	collector *netsimmetrics.Collector,
	logger *slog.Logger,
) (*topology.Registry, *routing.LSDB) {
	registry := topology.NewRegistry(logger)
	lsdb := routing.NewLSDB(logger)
	routers := make(map[routing.RouterID]*routing.GlobalRouter)

	getOrCreateNode := func(id string) *topology.Node {
		if n, ok := registry.Lookup(id); ok {
			return n
		}
		n := topology.NewNode(id)
		registry.AddNode(n)
		return n
	}

	getOrCreateRouter := func(id routing.RouterID) *routing.GlobalRouter {
		if r, ok := routers[id]; ok {
			return r
		}
		r := routing.NewGlobalRouter(id, logger)
		routers[id] = r
		return r
	}

	for _, lc := range cfg.Links {
		rate, err := simtime.ParseDataRate(lc.DataRate)
		if err != nil {
			logger.Error("skipping link with invalid data rate",
				slog.String("data_rate", lc.DataRate),
				slog.String("error", err.Error()),
			)
			continue
		}

		nodeA := getOrCreateNode(lc.NodeA)
		nodeB := getOrCreateNode(lc.NodeB)

		devA := p2p.NewNetDevice(kernel, lc.DeviceA, nextMacAddr(), logger)
		devB := p2p.NewNetDevice(kernel, lc.DeviceB, nextMacAddr(), logger)

		devA.SetInterframeGap(lc.InterframeGap)
		devB.SetInterframeGap(lc.InterframeGap)

		devA.AddQueue(simqueue.New(lc.QueueCapacity, simqueue.WithObserver(metricsObservers{collector, lc.DeviceA})))
		devB.AddQueue(simqueue.New(lc.QueueCapacity, simqueue.WithObserver(metricsObservers{collector, lc.DeviceB})))

		ch := p2p.NewChannel(kernel, rate, lc.Delay, logger)
		if err := devA.Attach(ch); err != nil {
			logger.Error("attach link endpoint A failed", slog.String("error", err.Error()))
			continue
		}
		if err := devB.Attach(ch); err != nil {
			logger.Error("attach link endpoint B failed", slog.String("error", err.Error()))
			continue
		}

		devA.SetRxObserver(metricsObservers{collector, lc.DeviceA})
		devB.SetRxObserver(metricsObservers{collector, lc.DeviceB})
		devA.SetFSMObserver(metricsObservers{collector, lc.DeviceA})
		devB.SetFSMObserver(metricsObservers{collector, lc.DeviceB})

		nodeA.AddDevice(devA)
		nodeB.AddDevice(devB)

		if lc.RouterA != "" && lc.RouterB != "" {
			routerA := getOrCreateRouter(routing.RouterID(lc.RouterA))
			routerB := getOrCreateRouter(routing.RouterID(lc.RouterB))
			nodeA.Router = routerA
			nodeB.Router = routerB

			routerA.AddLink(devA, lc.Metric)
			routerB.AddLink(devB, lc.Metric)
		}
	}

	return registry, lsdb
}

// -------------------------------------------------------------------------
// Systemd integration
// -------------------------------------------------------------------------

// notifyReady sends READY=1 to systemd, indicating the topology has
// been built and the first InitializeRoutes() has run.
func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// -------------------------------------------------------------------------
// Server setup and shutdown
// -------------------------------------------------------------------------

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func gracefulShutdown(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
