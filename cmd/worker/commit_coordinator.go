package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gsearch/internal/queue"
)

// commitCoordinator commits finished job messages in offset order per
// partition. Jobs finish out of order, so a message is held until every
// earlier offset on its partition has been committed.
type commitCoordinator struct {
	reader     queue.MessageReader
	commitCh   <-chan kafka.Message
	logger     *zap.Logger
	mu         sync.Mutex
	nextOffset map[int]int64
	pending    map[int]map[int64]kafka.Message
}

func newCommitCoordinator(reader queue.MessageReader, commitCh <-chan kafka.Message, logger *zap.Logger) *commitCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &commitCoordinator{
		reader:     reader,
		commitCh:   commitCh,
		logger:     logger,
		nextOffset: make(map[int]int64),
		pending:    make(map[int]map[int64]kafka.Message),
	}
}

// shutdownCommitTimeout bounds each commit made after ctx has ended.
const shutdownCommitTimeout = 5 * time.Second

// run commits as messages arrive until commitCh closes, then flushes whatever
// is contiguous. It keeps receiving after ctx ends so finishing jobs can
// always hand their message over; the owner closes commitCh once every job
// has returned.
func (c *commitCoordinator) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range c.commitCh {
		c.enqueue(msg)
		c.drain(ctx, msg.Partition)
	}
	c.flush(ctx)
}

// commitContext returns ctx while it is live, and a bounded detached context
// once it has ended, so in-flight work still commits during shutdown.
func commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), shutdownCommitTimeout)
}

// enqueue buffers msg. The first offset seen on a partition becomes its
// commit cursor.
func (c *commitCoordinator) enqueue(msg kafka.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buffered := c.pending[msg.Partition]
	if buffered == nil {
		buffered = make(map[int64]kafka.Message)
		c.pending[msg.Partition] = buffered
	}
	buffered[msg.Offset] = msg
	atomic.AddInt64(&workerCommitPendingTotal, 1)
	if _, seen := c.nextOffset[msg.Partition]; !seen {
		c.nextOffset[msg.Partition] = msg.Offset
	}
}

// commitNext commits the cursor message of partition if it is buffered.
// c.mu must be held; it is released around CommitMessages. A failed commit
// puts the message back and leaves the cursor in place.
func (c *commitCoordinator) commitNext(ctx context.Context, partition int) bool {
	offset := c.nextOffset[partition]
	msg, ok := c.pending[partition][offset]
	if !ok {
		return false
	}
	delete(c.pending[partition], offset)
	atomic.AddInt64(&workerCommitPendingTotal, -1)

	c.mu.Unlock()
	commitCtx, cancel := commitContext(ctx)
	start := time.Now()
	err := c.reader.CommitMessages(commitCtx, msg)
	observeLatency(commitLatency, time.Since(start))
	cancel()
	c.mu.Lock()

	if err != nil {
		atomic.AddUint64(&workerCommitErrorsTotal, 1)
		c.logger.Warn("commit failed",
			zap.Int("partition", partition),
			zap.Int64("offset", offset),
			zap.Error(err),
		)
		c.pending[partition][offset] = msg
		atomic.AddInt64(&workerCommitPendingTotal, 1)
		return false
	}
	c.nextOffset[partition] = offset + 1
	return true
}

func (c *commitCoordinator) drain(ctx context.Context, partition int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.commitNext(ctx, partition) {
	}
}

func (c *commitCoordinator) flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for partition := range c.pending {
		for c.commitNext(ctx, partition) {
		}
	}
}
