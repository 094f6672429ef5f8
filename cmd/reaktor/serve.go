package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reaktor-dev/reaktor/pkg/inspect"
	"github.com/reaktor-dev/reaktor/pkg/instrument"
	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		eventBuffer int
		interval    time.Duration
		tracing     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live graph inspector with a demo workload",
		Long: `Start the inspector HTTP server and drive a small reactive graph so
there is something to look at:

  GET /graph    current nodes, edges, and recent events
  GET /ws       websocket event stream
  GET /metrics  Prometheus metrics
  GET /healthz  liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, eventBuffer, interval, tracing)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9290", "Listen address")
	cmd.Flags().IntVar(&eventBuffer, "event-buffer", 256, "Recent events kept for /graph")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Demo workload write interval")
	cmd.Flags().BoolVar(&tracing, "tracing", false, "Register the OpenTelemetry hook")

	return cmd
}

func runServe(addr string, eventBuffer int, interval time.Duration, tracing bool) error {
	registry := prometheus.NewRegistry()
	reaktor.RegisterHook(instrument.Prometheus(instrument.WithRegistry(registry)))
	if tracing {
		reaktor.RegisterHook(instrument.OpenTelemetry())
	}

	recorder := inspect.NewRecorder(eventBuffer)
	reaktor.RegisterHook(recorder)

	server := inspect.NewServer(recorder,
		inspect.WithAddr(addr),
		inspect.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	workloadCtx, stopWorkload := context.WithCancel(context.Background())
	workloadDone := make(chan struct{})
	go func() {
		defer close(workloadDone)
		runWorkload(workloadCtx, interval)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	success("inspector listening on %s", addr)
	info("demo workload writing every %s", interval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopWorkload()
		<-workloadDone
		return err
	case <-sig:
	}

	info("shutting down")
	stopWorkload()
	<-workloadDone

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(ctx)
}

// runWorkload drives a small order-book style graph so the inspector has
// live traffic. All graph mutation happens on this goroutine.
func runWorkload(ctx context.Context, interval time.Duration) {
	bid := reaktor.NewSignal(100.0)
	ask := reaktor.NewSignal(101.0)

	mid := reaktor.Define(func() float64 {
		return (bid.Get() + ask.Get()) / 2
	})
	spread := reaktor.Define(func() float64 {
		return ask.Get() - bid.Get()
	})

	book := reaktor.NewReactor(map[string]any{
		"symbol": "RKTR",
		"trades": []any{},
	})

	_, _ = reaktor.NewObserver(func(args ...any) any {
		_ = mid.Get()
		_ = spread.Get()
		return nil
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			move := (rng.Float64() - 0.5) * 2
			_ = reaktor.Batch(func() {
				bid.Set(bid.Peek() + move)
				ask.Set(ask.Peek() + move + rng.Float64())
			})

			trades := book.Get("trades").(*reaktor.ListReactor)
			_ = trades.Append(mid.Peek())
			if trades.Len() > 20 {
				_ = trades.RemoveAt(0)
			}
		}
	}
}
