package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roadassist/client/internal/model"
)

// pushServer is a fake server that records inbound control frames and
// can push frames back to the client.
type pushServer struct {
	*httptest.Server
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  []*websocket.Conn
	frames []controlFrame
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	ps := &pushServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := ps.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.mu.Lock()
		ps.conns = append(ps.conns, ws)
		ps.mu.Unlock()

		for {
			var frame controlFrame
			if err := ws.ReadJSON(&frame); err != nil {
				return
			}
			ps.mu.Lock()
			ps.frames = append(ps.frames, frame)
			ps.mu.Unlock()
		}
	}))
	t.Cleanup(ps.Server.Close)
	return ps
}

func (ps *pushServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ps.URL, "http")
}

func (ps *pushServer) recordedFrames() []controlFrame {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]controlFrame, len(ps.frames))
	copy(out, ps.frames)
	return out
}

func (ps *pushServer) push(t *testing.T, destination string, body interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling push body: %v", err)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.conns) == 0 {
		t.Fatal("no client connected")
	}
	ws := ps.conns[len(ps.conns)-1]
	if err := ws.WriteJSON(inboundFrame{Destination: destination, Body: raw}); err != nil {
		t.Fatalf("pushing frame: %v", err)
	}
}

func (ps *pushServer) dropClients() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, ws := range ps.conns {
		ws.Close()
	}
	ps.conns = nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newTestConn(ps *pushServer) *Conn {
	return New(ps.wsURL(), func() string { return "tok" }, nil)
}

func TestPendingSubscriptionsFlushedInOrder(t *testing.T) {
	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	noop := func(Event) {}
	for _, topic := range []string{"/queue/a", "/queue/b", "/queue/c"} {
		if err := conn.Subscribe(topic, noop); err != nil {
			t.Fatalf("Subscribe(%s): %v", topic, err)
		}
	}

	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return len(ps.recordedFrames()) == 3 })

	frames := ps.recordedFrames()
	want := []string{"/queue/a", "/queue/b", "/queue/c"}
	for i, frame := range frames {
		if frame.Command != "SUBSCRIBE" || frame.Destination != want[i] {
			t.Errorf("frame %d = %s %s, want SUBSCRIBE %s", i, frame.Command, frame.Destination, want[i])
		}
	}
}

func TestDuplicateSubscribeRejected(t *testing.T) {
	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	if err := conn.Subscribe("/queue/a", func(Event) {}); err != nil {
		t.Fatalf("first Subscribe: %v", err)
	}
	if err := conn.Subscribe("/queue/a", func(Event) {}); err != ErrTopicSubscribed {
		t.Errorf("second Subscribe = %v, want ErrTopicSubscribed", err)
	}
}

func TestUnsubscribeThenResubscribe(t *testing.T) {
	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	if err := conn.Subscribe("/queue/a", func(Event) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := conn.Unsubscribe("/queue/a"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := conn.Unsubscribe("/queue/a"); err != nil {
		t.Errorf("second Unsubscribe must be a no-op, got %v", err)
	}
	if err := conn.Subscribe("/queue/a", func(Event) {}); err != nil {
		t.Errorf("resubscribe after Unsubscribe: %v", err)
	}
}

func TestConnectIdempotent(t *testing.T) {
	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := conn.Connect(); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	ps.mu.Lock()
	got := len(ps.conns)
	ps.mu.Unlock()
	if got != 1 {
		t.Errorf("server saw %d connections, want 1", got)
	}
}

func TestEventDispatchedToTopicHandler(t *testing.T) {
	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	events := make(chan Event, 1)
	if err := conn.Subscribe("/queue/requests", func(e Event) { events <- e }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return len(ps.recordedFrames()) == 1 })

	ps.push(t, "/queue/requests", map[string]interface{}{
		"type":      "REQUEST_ACCEPTED",
		"data":      map[string]interface{}{"id": "r1", "status": "ACCEPTED"},
		"timestamp": 1700000000000,
	})

	select {
	case e := <-events:
		if e.Type != model.EventRequestAccepted {
			t.Errorf("type = %s", e.Type)
		}
		if e.Request == nil || e.Request.ID != "r1" {
			t.Errorf("request = %+v", e.Request)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestMalformedFramesDroppedConnectionSurvives(t *testing.T) {
	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	events := make(chan Event, 1)
	if err := conn.Subscribe("/queue/requests", func(e Event) { events <- e }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return len(ps.recordedFrames()) == 1 })

	// Unknown event type, then a valid event. Only the valid one
	// should reach the handler.
	ps.push(t, "/queue/requests", map[string]interface{}{
		"type": "SOMETHING_ELSE", "data": map[string]interface{}{}, "timestamp": 0,
	})
	ps.push(t, "/queue/requests", map[string]interface{}{
		"type":      "STATUS_UPDATE",
		"data":      map[string]interface{}{"id": "r2", "status": "COMPLETED"},
		"timestamp": 1700000000000,
	})

	select {
	case e := <-events:
		if e.Request == nil || e.Request.ID != "r2" {
			t.Errorf("got %+v, want the valid event", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid event not delivered after malformed one")
	}
}

func TestReconnectAfterDropReannouncesSubscriptions(t *testing.T) {
	old := reconnectDelay
	reconnectDelay = 20 * time.Millisecond
	defer func() { reconnectDelay = old }()

	ps := newPushServer(t)
	conn := newTestConn(ps)
	defer conn.Disconnect()

	statuses := make(chan bool, 8)
	conn.OnStatusChange(func(up bool) { statuses <- up })

	if err := conn.Subscribe("/queue/requests", func(Event) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return len(ps.recordedFrames()) == 1 })

	ps.dropClients()

	// Connected, dropped, reconnected.
	waitFor(t, 5*time.Second, func() bool { return len(ps.recordedFrames()) == 2 })

	frames := ps.recordedFrames()
	last := frames[len(frames)-1]
	if last.Command != "SUBSCRIBE" || last.Destination != "/queue/requests" {
		t.Errorf("reconnect frame = %s %s", last.Command, last.Destination)
	}

	var seq []bool
	deadline := time.After(2 * time.Second)
	for len(seq) < 3 {
		select {
		case up := <-statuses:
			seq = append(seq, up)
		case <-deadline:
			t.Fatalf("status sequence incomplete: %v", seq)
		}
	}
	if !seq[0] || seq[1] || !seq[2] {
		t.Errorf("status sequence = %v, want [true false true]", seq)
	}
}

func TestDisconnectStopsReconnect(t *testing.T) {
	old := reconnectDelay
	reconnectDelay = 20 * time.Millisecond
	defer func() { reconnectDelay = old }()

	ps := newPushServer(t)
	conn := newTestConn(ps)

	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn.Disconnect()
	conn.Disconnect()

	// No reconnect attempt should land after an intentional close.
	time.Sleep(150 * time.Millisecond)
	ps.mu.Lock()
	got := len(ps.conns)
	ps.mu.Unlock()
	if got != 1 {
		t.Errorf("server saw %d connections, want only the original", got)
	}
	if conn.Connected() {
		t.Error("Connected() must be false after Disconnect")
	}
}
