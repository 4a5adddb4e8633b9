// Command demo runs a turnstile, or a machine loaded from a definition file,
// on the realtime runtime and logs every transition.
//
// Settings come from the environment (and .env): DEMO_TICK_RATE, DEMO_FARE,
// DEMO_COINS, DEMO_DEFINITION, DEMO_STEPS, DEMO_METRICS_ADDR, LOGGING_LEVEL
// and LOGGING_FORMAT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/internal/config"
	"github.com/comalice/fsmx/internal/logger"
	"github.com/comalice/fsmx/internal/metrics"
	"github.com/comalice/fsmx/internal/production"
	"github.com/comalice/fsmx/realtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel, logger.ParseFormat(cfg.LogFormat))
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, g, cfg.MetricsAddr, reg, log)
	}

	d := demo{cfg: cfg, log: log, collector: collector}
	if cfg.Definition != "" {
		err = runDefinition(ctx, d)
	} else {
		err = runTurnstile(ctx, d)
	}
	// With a metrics endpoint the demo keeps serving until it is signalled.
	if err != nil || cfg.MetricsAddr == "" {
		cancel()
	}
	waitErr := g.Wait()

	for _, e := range []error{err, waitErr} {
		if e != nil && !errors.Is(e, context.Canceled) {
			return e
		}
	}
	log.Info("demo finished")
	return nil
}

type demo struct {
	cfg       config.Demo
	log       *zap.Logger
	collector *metrics.Collector
}

// machineOptions are the options shared by both demo machines.
func (d demo) machineOptions(id string) []fsmx.Option {
	return []fsmx.Option{
		fsmx.WithID(id),
		fsmx.WithLogger(logger.For("fsmx")),
		fsmx.WithUnhandledHook(d.collector.UnhandledHook(id)),
		fsmx.WithDispatchHook(d.collector.DispatchHook(id)),
	}
}

// drive hosts rt until next runs out of events: it observes the runtime, starts
// the tick loop, sends one event per pace and waits for the runtime to go idle.
func drive[S, E fsmx.Tagged](ctx context.Context, rt *realtime.Runtime[S, E], d demo, next func() (E, bool)) error {
	stopMetrics := metrics.Observe[S, E](d.collector, rt)
	defer stopMetrics()
	stopLogging := production.LogTransitions[S, E](rt, d.log.Named("transitions"))
	defer stopLogging()

	if err := rt.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = rt.Stop() }()

	pace := time.NewTicker(2 * d.cfg.TickRate)
	defer pace.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pace.C:
		}
		e, ok := next()
		if !ok {
			break
		}
		if err := rt.SendEvent(e); err != nil {
			d.log.Warn("event rejected", zap.String("event", e.Kind()), zap.Error(err))
		}
	}

	// Let the last event and its side effects through.
	settle := rt.TickNumber() + 2
	for rt.TickNumber() < settle {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pace.C:
		}
	}
	d.log.Info("events processed",
		zap.String("state", rt.Current().Kind()),
		zap.Uint64("ticks", rt.TickNumber()))
	return nil
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
