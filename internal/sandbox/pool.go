package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Pool is a bounded FIFO queue of pre-warmed Clients plus a set of
// in-use clients, guarded by a single mutex (spec.md section 4.5). It is
// an optimization only: correctness never depends on pool membership.
type Pool struct {
	logger   *slog.Logger
	command  []string
	size     int
	overflow bool

	mu     sync.Mutex
	queue  []*Client
	inUse  map[*Client]struct{}
	closed bool
}

// NewPool returns a Pool that, once Start is called, eagerly constructs
// size clients running command.
func NewPool(command []string, size int, allowOverflow bool, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		logger:   logger.With("component", "sandbox.pool"),
		command:  command,
		size:     size,
		overflow: allowOverflow,
		inUse:    make(map[*Client]struct{}),
	}
}

// Start constructs and starts size clients, queuing them for Acquire.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		client := NewClient(p.logger)
		if err := client.Start(ctx, p.command); err != nil {
			return fmt.Errorf("sandbox: pool: start client %d: %w", i, err)
		}
		p.queue = append(p.queue, client)
	}
	p.logger.Info("sandbox pool started", "size", p.size)
	return nil
}

// Acquire pops a client from the queue. If the queue is empty and overflow
// is enabled, it constructs a new client on demand; otherwise it returns
// an error.
func (p *Pool) Acquire(ctx context.Context) (*Client, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("sandbox: pool: closed")
	}
	if len(p.queue) > 0 {
		client := p.queue[0]
		p.queue = p.queue[1:]
		p.inUse[client] = struct{}{}
		p.mu.Unlock()
		return client, nil
	}
	p.mu.Unlock()

	if !p.overflow {
		return nil, fmt.Errorf("sandbox: pool: exhausted and overflow disabled")
	}

	client := NewClient(p.logger)
	if err := client.Start(ctx, p.command); err != nil {
		return nil, fmt.Errorf("sandbox: pool: overflow start: %w", err)
	}

	p.mu.Lock()
	p.inUse[client] = struct{}{}
	p.mu.Unlock()
	p.logger.Debug("sandbox pool overflow client created")
	return client, nil
}

// Release returns client to the tail of the queue. Releasing a client not
// currently tracked as in-use is a no-op.
func (p *Pool) Release(client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inUse[client]; !ok {
		return
	}
	delete(p.inUse, client)
	if p.closed {
		_ = client.Stop()
		return
	}
	p.queue = append(p.queue, client)
}

// Discard removes client from the in-use set and stops it without
// returning it to the pool, for use when a client is known to be dead
// (e.g. after a fatal ChannelError).
func (p *Pool) Discard(client *Client) {
	p.mu.Lock()
	delete(p.inUse, client)
	p.mu.Unlock()
	_ = client.Stop()
}

// Stop terminates every client, both queued and in-use.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.closed = true
	queued := p.queue
	p.queue = nil
	inUse := make([]*Client, 0, len(p.inUse))
	for c := range p.inUse {
		inUse = append(inUse, c)
	}
	p.mu.Unlock()

	for _, c := range queued {
		_ = c.Stop()
	}
	for _, c := range inUse {
		_ = c.Stop()
	}
	p.logger.Info("sandbox pool stopped")
}
