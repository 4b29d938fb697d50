package geo

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/roadassist/client/internal/model"
)

// ErrNoFix means the provider is running but has not produced a usable
// position yet. Distinct from connection failures, which the provider
// retries internally.
var ErrNoFix = errors.New("no position fix")

// GpsdProvider reads position fixes from a local gpsd daemon over its
// JSON TCP protocol. It keeps the most recent TPV report and serves it
// from Current.
type GpsdProvider struct {
	addr string

	mu      sync.Mutex
	latest  model.Position
	haveFix bool
}

// tpvReport is the subset of gpsd's TPV message the provider needs.
type tpvReport struct {
	Class string  `json:"class"`
	Mode  int     `json:"mode"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// NewGpsdProvider creates a provider for the daemon at addr
// (typically localhost:2947).
func NewGpsdProvider(addr string) *GpsdProvider {
	return &GpsdProvider{addr: addr}
}

// Run connects to gpsd and consumes reports until ctx is cancelled,
// reconnecting on failure.
func (p *GpsdProvider) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consume(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// consume holds one gpsd session: enable watching, then read reports
// until the connection breaks.
func (p *GpsdProvider) consume(ctx context.Context) {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if _, err := fmt.Fprintf(conn, "?WATCH={\"enable\":true,\"json\":true}\n"); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		var report tpvReport
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			continue
		}
		// Mode 2 is a 2D fix, mode 3 adds altitude.
		if report.Class != "TPV" || report.Mode < 2 {
			continue
		}
		p.mu.Lock()
		p.latest = model.Position{Latitude: report.Lat, Longitude: report.Lon}
		p.haveFix = true
		p.mu.Unlock()
	}
}

// Current returns the most recent fix, or an error while no fix has
// arrived yet.
func (p *GpsdProvider) Current(ctx context.Context) (model.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.haveFix {
		return model.Position{}, fmt.Errorf("gpsd at %s: %w", p.addr, ErrNoFix)
	}
	return p.latest, nil
}
