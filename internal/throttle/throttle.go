// Package throttle implements the priority-weighted fair-share bandwidth
// scheduler: an arena-style table of ActiveTransfer records behind one
// mutex, a priority function favouring small and near-complete files, and
// an iterator wrapper built on golang.org/x/time/rate for the per-stream
// pacing primitive.
package throttle

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/pureboot/pureboot/internal/model"
)

var (
	metricsOnce     sync.Once
	bytesDelivered  prometheus.Counter
	activeTransfers prometheus.Gauge
)

// registerMetrics registers the throttler's Prometheus collectors on the
// default registry exactly once, no matter how many Throttlers are created.
func registerMetrics() {
	metricsOnce.Do(func() {
		bytesDelivered = promauto.NewCounter(prometheus.CounterOpts{
			Name: "pureboot_throttle_bytes_delivered_total",
			Help: "Total bytes delivered through the throttled copy path.",
		})
		activeTransfers = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pureboot_throttle_active_transfers",
			Help: "Number of transfers currently registered with the throttler.",
		})
	})
}

// MinBandwidth is the floor below which no registered transfer's allocation
// may fall, expressed in bytes/sec (1 Mbps).
const MinBandwidth = 125_000

// smallFileThreshold and nearCompletionThreshold gate the two priority
// bonuses from spec §4.7.
const smallFileThreshold = 10 << 20 // 10 MiB

const nearCompletionThreshold = 0.8

// cooperativePause is the yield between slices emitted by an Iterator, long
// enough to let sibling streams make progress without materially slowing
// any single stream.
const cooperativePause = 10 * time.Millisecond

// Throttler allocates a shared egress budget across concurrently registered
// transfers. The transfer table is the only mutable shared structure and is
// serialised by a single mutex, per spec §4.7 and §9's arena-table note.
//
// Byte-level pacing within each interval is delegated to a per-transfer
// golang.org/x/time/rate.Limiter, whose rate is re-tuned to the transfer's
// current share every time AllowedBytes recomputes priorities: the table
// decides *how much* a transfer may send this interval, the limiter
// decides the cadence at which that budget is actually spent.
type Throttler struct {
	totalBandwidthBytesPerSec float64

	mu        sync.Mutex
	transfers map[string]*model.ActiveTransfer
	limiters  map[string]*rate.Limiter
}

// New returns a Throttler that caps aggregate allocation at
// totalBandwidthBytesPerSec across all registered transfers.
func New(totalBandwidthBytesPerSec float64) *Throttler {
	registerMetrics()
	return &Throttler{
		totalBandwidthBytesPerSec: totalBandwidthBytesPerSec,
		transfers:                 make(map[string]*model.ActiveTransfer),
		limiters:                  make(map[string]*rate.Limiter),
	}
}

// Priority computes the priority score for a transfer with the given total
// size and bytes delivered so far, per spec §4.7. Exported so callers (and
// tests asserting the boundary-exactness law) don't need a live Throttler.
func Priority(totalBytes, bytesTransferred int64) float64 {
	priority := 1.0

	if totalBytes < smallFileThreshold {
		priority += 1 - float64(totalBytes)/smallFileThreshold
	}

	if totalBytes > 0 {
		progress := float64(bytesTransferred) / float64(totalBytes)
		if progress > nearCompletionThreshold {
			priority += (progress - nearCompletionThreshold) / (1 - nearCompletionThreshold)
		}
	}

	return priority
}

// Register creates a new ActiveTransfer and adds it to the table. Callers
// must call Unregister on every exit path (completion, cancellation, or
// error) — this is the throttler's only unconditional obligation.
func (t *Throttler) Register(transferID, filePath string, totalBytes int64) *model.ActiveTransfer {
	transfer := &model.ActiveTransfer{
		TransferID: transferID,
		FilePath:   filePath,
		TotalBytes: totalBytes,
		StartedAt:  time.Now(),
		Priority:   Priority(totalBytes, 0),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.transfers[transferID] = transfer
	t.limiters[transferID] = rate.NewLimiter(rate.Limit(MinBandwidth), chunkSize)
	activeTransfers.Inc()
	return transfer
}

// Unregister removes a transfer from the table. It is safe to call more
// than once; the second call is a no-op.
func (t *Throttler) Unregister(transferID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.transfers[transferID]; ok {
		activeTransfers.Dec()
	}
	delete(t.transfers, transferID)
	delete(t.limiters, transferID)
}

// ActiveCount returns the number of currently registered transfers. It does
// not require a consistent view and may observe a stale count, per §4.7.
func (t *Throttler) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.transfers)
}

// AllowedBytes computes how many bytes transferID may send over the next
// interval of length delta, per the allocation algorithm in spec §4.7:
// share of total priority, floored, floor-bounded by MinBandwidth, and
// capped by bytes remaining in the file.
func (t *Throttler) AllowedBytes(transferID string, delta time.Duration) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	transfer, ok := t.transfers[transferID]
	if !ok {
		return 0
	}

	var totalPriority float64
	for _, other := range t.transfers {
		totalPriority += other.Priority
	}
	if totalPriority == 0 {
		return 0
	}

	share := transfer.Priority / totalPriority
	dt := delta.Seconds()

	allowed := int64(math.Floor(t.totalBandwidthBytesPerSec * dt * share))
	floor := int64(math.Floor(MinBandwidth * dt))
	if allowed < floor {
		allowed = floor
	}

	remaining := transfer.TotalBytes - transfer.BytesTransferred
	if allowed > remaining {
		allowed = remaining
	}
	if allowed < 0 {
		allowed = 0
	}

	if limiter, ok := t.limiters[transferID]; ok && dt > 0 {
		limiter.SetLimit(rate.Limit(float64(allowed) / dt))
		limiter.SetBurst(max(chunkSize, int(allowed)))
	}

	return allowed
}

// recordProgress advances a transfer's BytesTransferred and recomputes its
// priority, both under the table's mutex.
func (t *Throttler) recordProgress(transferID string, n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	transfer, ok := t.transfers[transferID]
	if !ok {
		return
	}
	transfer.BytesTransferred += n
	transfer.Priority = Priority(transfer.TotalBytes, transfer.BytesTransferred)
	bytesDelivered.Add(float64(n))
}

// chunkSize bounds the size of any single emitted slice, independent of the
// allocation for the interval.
const chunkSize = 32 * 1024

// Copy streams src to dst under transferID's throttled allocation. It fills
// an upstream buffer, repeatedly asks AllowedBytes for this interval, and
// emits up to min(buffered, allowed, chunkSize) bytes before yielding a
// cooperative pause, per spec §4.7's iterator wrapper. It guarantees
// Unregister(transferID) runs on every exit path — completion, error, or ctx
// cancellation — which is the wrapper's sole correctness obligation.
func (t *Throttler) Copy(ctx context.Context, dst io.Writer, src io.Reader, transferID string) (int64, error) {
	defer t.Unregister(transferID)

	var (
		buf     []byte
		read    = make([]byte, chunkSize)
		written int64
		eof     bool
	)

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		if !eof && len(buf) < chunkSize {
			n, readErr := src.Read(read)
			if n > 0 {
				buf = append(buf, read[:n]...)
			}
			if readErr == io.EOF {
				eof = true
			} else if readErr != nil {
				return written, fmt.Errorf("throttled copy: read: %w", readErr)
			}
		}

		if len(buf) == 0 {
			if eof {
				return written, nil
			}
			continue
		}

		allowed := t.AllowedBytes(transferID, time.Second)
		emit := int64(len(buf))
		if allowed < emit {
			emit = allowed
		}
		if chunkSize < emit {
			emit = chunkSize
		}

		if emit == 0 {
			select {
			case <-ctx.Done():
				return written, ctx.Err()
			case <-time.After(cooperativePause):
			}
			continue
		}

		if limiter := t.limiterFor(transferID); limiter != nil {
			if err := limiter.WaitN(ctx, int(emit)); err != nil {
				return written, fmt.Errorf("throttled copy: rate wait: %w", err)
			}
		}

		n, writeErr := dst.Write(buf[:emit])
		if n > 0 {
			written += int64(n)
			t.recordProgress(transferID, int64(n))
			buf = buf[n:]
		}
		if writeErr != nil {
			return written, fmt.Errorf("throttled copy: write: %w", writeErr)
		}

		if len(buf) == 0 && eof {
			return written, nil
		}

		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-time.After(cooperativePause):
		}
	}
}

func (t *Throttler) limiterFor(transferID string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiters[transferID]
}
