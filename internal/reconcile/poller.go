package reconcile

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/api"
)

// FeedState represents the current state of a feed's poll cycle.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedRunning
	FeedError
)

// FeedStatus holds the poll state for a single feed.
type FeedStatus struct {
	Name     string
	State    FeedState
	LastSync time.Time
	Error    error
}

// FeedResultMsg is a tea.Msg sent when a feed's poll cycle completes.
type FeedResultMsg struct {
	Feed  string
	Error error

	// Auth is set when the failure was an authentication error; the
	// app reacts by tearing the session down, not by retrying.
	Auth bool
}

// Feed is one polled data source: a name, a cadence, and a fetch that
// folds the server's state into the app's stores.
type Feed struct {
	Name     string
	Interval time.Duration
	Fetch    func(ctx context.Context) error
}

// fetchTimeout is the maximum time allowed for a single fetch.
const fetchTimeout = 30 * time.Second

// Poller runs one goroutine per registered feed and reports each cycle
// to the Bubble Tea runtime over a result channel.
type Poller struct {
	feeds     []Feed
	statuses  map[string]*FeedStatus
	resultCh  chan FeedResultMsg
	triggerCh chan string
	stopCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewPoller creates a poller with no feeds registered.
func NewPoller() *Poller {
	return &Poller{
		statuses:  make(map[string]*FeedStatus),
		resultCh:  make(chan FeedResultMsg, 16),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
	}
}

// Register adds a feed to the poller. Must be called before Start.
func (p *Poller) Register(feed Feed) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feeds = append(p.feeds, feed)
	p.statuses[feed.Name] = &FeedStatus{Name: feed.Name, State: FeedIdle}
}

// Start launches the polling goroutines and returns a tea.Cmd that
// waits for the first result. Calling Start twice is a no-op.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	feeds := make([]Feed, len(p.feeds))
	copy(feeds, p.feeds)
	p.mu.Unlock()

	for _, feed := range feeds {
		go p.pollFeed(feed)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll of the named feed.
func (p *Poller) Refresh(name string) tea.Cmd {
	select {
	case p.triggerCh <- name:
	default:
	}
	return nil
}

// RefreshAll triggers an immediate poll of every feed.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	feeds := make([]Feed, len(p.feeds))
	copy(feeds, p.feeds)
	p.mu.Unlock()

	for _, feed := range feeds {
		select {
		case p.triggerCh <- feed.Name:
		default:
		}
	}
	return nil
}

// Statuses returns the current status of every feed.
func (p *Poller) Statuses() []FeedStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]FeedStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		out = append(out, *s)
	}
	return out
}

// pollFeed runs the polling loop for a single feed.
func (p *Poller) pollFeed(feed Feed) {
	interval := feed.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial fetch immediately.
	p.runCycle(feed)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runCycle(feed)
		case name := <-p.triggerCh:
			if name == feed.Name {
				p.runCycle(feed)
			}
		}
	}
}

// runCycle performs one fetch and reports the outcome.
func (p *Poller) runCycle(feed Feed) {
	p.setStatus(feed.Name, FeedRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if err := feed.Fetch(ctx); err != nil {
		p.setStatus(feed.Name, FeedError, err)
		p.sendResult(FeedResultMsg{
			Feed:  feed.Name,
			Error: err,
			Auth:  api.IsAuthError(err),
		})
		return
	}

	p.setStatus(feed.Name, FeedIdle, nil)
	p.sendResult(FeedResultMsg{Feed: feed.Name})
}

// setStatus updates the status entry for a feed.
func (p *Poller) setStatus(name string, state FeedState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status, ok := p.statuses[name]
	if !ok {
		return
	}
	status.State = state
	status.Error = err
	if state == FeedIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends without blocking; a full channel drops the result.
func (p *Poller) sendResult(msg FeedResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}

// waitForResult returns a tea.Cmd that waits for the next poll result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult re-arms the result subscription. Call it after
// handling a FeedResultMsg.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
