package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/api/metrics"
	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	sendTimeout    = 5 * time.Second
)

// Dispatcher routes lifecycle events to a fixed set of workers using
// consistent hashing on the request id, guaranteeing per-request ordering.
// It implements ports.EventPublisher.
type Dispatcher struct {
	workers []chan domain.LifecycleEvent
	sink    ports.EventSink
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.EventSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.LifecycleEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LifecycleEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands the event to the worker responsible for its request. It never
// blocks: when the worker queue is full the event is dropped and counted.
func (d *Dispatcher) Publish(_ context.Context, event domain.LifecycleEvent) {
	metrics.LifecycleEventsTotal.WithLabelValues(string(event.Type)).Inc()

	idx := d.shardIndex(event.RequestID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.EventsDroppedTotal.WithLabelValues(string(event.Type)).Inc()
		d.log.Warn().
			Str("request_id", event.RequestID).
			Str("type", string(event.Type)).
			Int("worker_id", idx).
			Msg("dispatcher queue full, event dropped")
	}
}

// shardIndex maps a request id deterministically to a worker index.
func (d *Dispatcher) shardIndex(requestID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(requestID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LifecycleEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, event domain.LifecycleEvent) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.sink.Send(sendCtx, event)
	result := "ok"
	if err != nil {
		result = "error"
		d.log.Error().Err(err).
			Str("request_id", event.RequestID).
			Str("type", string(event.Type)).
			Int("worker_id", worker).
			Msg("event delivery failed")
	}
	metrics.EventsDeliveredTotal.WithLabelValues(string(event.Type), result).Inc()
	metrics.EventDeliveryDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
