// Command clepsydra-bench measures instrumentation throughput across worker counts.
//
// It subscribes one wall-clock listener to each of N unique event names and,
// for every worker count, instruments each name exactly once with the names
// split evenly between workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/clepsydra"
)

var (
	events      = flag.Int("events", 1_000_000, "number of unique event names")
	workerList  = flag.String("workers", "1,10,25,50,100,200,400", "comma separated worker counts")
	monotonic   = flag.Bool("monotonic", false, "subscribe monotonic listeners")
	tokenPool   = flag.Int("token-pool", 0, "event ids rendered per batch (0 disables batching)")
	development = flag.Bool("dev", false, "human readable logs")
)

func main() {
	flag.Parse()

	logger, err := newLogger(*development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	counts, err := parseWorkers(*workerList)
	if err != nil {
		logger.Fatal("invalid -workers", zap.Error(err))
	}

	if err := run(context.Background(), logger, *events, counts); err != nil {
		logger.Fatal("benchmark failed", zap.Error(err))
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parseWorkers(list string) ([]int, error) {
	var counts []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("worker count %q: %w", part, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("worker count %d must be > 0", n)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no worker counts given")
	}
	return counts, nil
}

func eventName(i int) clepsydra.Key {
	return "foo-" + strconv.Itoa(i)
}

func run(ctx context.Context, logger *zap.Logger, total int, workerCounts []int) error {
	var opts []clepsydra.Option
	if *tokenPool > 0 {
		opts = append(opts, clepsydra.WithTokenPool(*tokenPool))
	}
	notifier := clepsydra.New(opts...)

	var notified atomic.Int64
	listener := func(clepsydra.Event, clepsydra.Instant, clepsydra.Instant, clepsydra.Payload) error {
		notified.Add(1)
		return nil
	}

	setupStart := time.Now()
	for i := 0; i < total; i++ {
		if _, err := notifier.Subscribe(eventName(i), *monotonic, listener); err != nil {
			return err
		}
	}
	logger.Info("subscribed",
		zap.Int("events", total),
		zap.Duration("elapsed", time.Since(setupStart)),
	)

	for _, workers := range workerCounts {
		batch := total / workers
		if batch*workers != total {
			logger.Warn("invalid worker count, skipping",
				zap.Int("workers", workers),
				zap.Int("events", total),
			)
			continue
		}

		notified.Store(0)
		elapsed, err := instrumentAll(ctx, notifier, workers, batch)
		if err != nil {
			return err
		}
		if got := notified.Load(); got != int64(total) {
			return fmt.Errorf("%d workers: expected %d notifications, got %d", workers, total, got)
		}

		logger.Info("scenario",
			zap.Int("workers", workers),
			zap.Int("per_worker", batch),
			zap.Duration("elapsed", elapsed),
			zap.Float64("ops_per_sec", float64(total)/elapsed.Seconds()),
		)
	}

	return nil
}

// instrumentAll gives worker j the names [j*batch, (j+1)*batch).
func instrumentAll(ctx context.Context, notifier *clepsydra.Notifier, workers, batch int) (time.Duration, error) {
	g, ctx := errgroup.WithContext(ctx)
	noop := func(clepsydra.Payload) error { return nil }

	start := time.Now()
	for j := 0; j < workers; j++ {
		g.Go(func() error {
			inst := clepsydra.NewInstrumenter(notifier)
			for i := 0; i < batch; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := inst.Instrument(eventName(batch*j+i), nil, noop); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return time.Since(start), err
}
