package netprobe

import (
	"context"
	"net"
	"sync"
	"time"
)

// Checker answers one reachability question.
type Checker interface {
	Check(ctx context.Context) bool
}

// CheckerFunc adapts a function to [Checker].
type CheckerFunc func(ctx context.Context) bool

// Check implements [Checker].
func (f CheckerFunc) Check(ctx context.Context) bool {
	return f(ctx)
}

// DialChecker reports reachability by opening a TCP connection.
type DialChecker struct {
	// Address is host:port, typically the backend itself.
	Address string
	Timeout time.Duration
}

// Check implements [Checker].
func (d DialChecker) Check(ctx context.Context) bool {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", d.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Poller runs a checker on an interval, caches the last verdict, and
// notifies subscribers on every poll result. Edge filtering is the
// consumer's concern.
type Poller struct {
	checker  Checker
	interval time.Duration

	mu      sync.Mutex
	online  bool
	checked bool
	nextID  int
	subs    map[int]func(online bool)

	startOnce sync.Once
	closeOnce sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

// NewPoller builds a poller; Start arms it.
func NewPoller(checker Checker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{
		checker:  checker,
		interval: interval,
		subs:     make(map[int]func(bool)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the poll loop. Safe to call more than once.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		p.mu.Lock()
		p.started = true
		p.mu.Unlock()
		go p.run()
	})
}

func (p *Poller) run() {
	defer close(p.done)

	p.poll()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.stop:
			return
		}
	}
}

func (p *Poller) poll() {
	online := p.checker.Check(context.Background())

	p.mu.Lock()
	p.online = online
	p.checked = true
	fns := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// IsConnected returns the cached verdict, checking synchronously if no poll
// has completed yet.
func (p *Poller) IsConnected(ctx context.Context) bool {
	p.mu.Lock()
	checked, online := p.checked, p.online
	p.mu.Unlock()
	if checked {
		return online
	}
	return p.checker.Check(ctx)
}

// Subscribe registers fn for every poll verdict and returns an unsubscribe
// function.
func (p *Poller) Subscribe(fn func(online bool)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Close stops the poll loop and waits for it to exit.
func (p *Poller) Close() {
	p.closeOnce.Do(func() {
		close(p.stop)
		p.mu.Lock()
		started := p.started
		p.mu.Unlock()
		if started {
			<-p.done
		}
	})
}
