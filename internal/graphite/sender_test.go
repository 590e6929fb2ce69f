package graphite

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dashwatch/internal/pipeline"
)

// fakeCarbon accepts one connection and returns everything written to it.
func fakeCarbon(t *testing.T) (addr string, received <-chan string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			out <- ""
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		out <- string(data)
	}()
	return listener.Addr().String(), out
}

func TestDeliverWritesPlaintextLines(t *testing.T) {
	addr, received := fakeCarbon(t)
	sender := NewSender(Options{Addr: addr, Timeout: time.Second}, zerolog.Nop())

	records := []pipeline.Record{
		{
			Timestamp: time.Unix(1000, 0).UTC(),
			Fields: map[string]float64{
				"requests_per_second":      12.5,
				"client_errors_per_second": 0.25,
			},
		},
		{
			Timestamp: time.Unix(1005, 0).UTC(),
			Fields:    map[string]float64{"requests_per_second": 13},
		},
	}

	if err := sender.Deliver(context.Background(), "webapp.gae.dashboard.summary", "default", records); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	payload := <-received
	want := strings.Join([]string{
		"webapp.gae.dashboard.summary.default_module.client_errors_per_second 0.25 1000",
		"webapp.gae.dashboard.summary.default_module.requests_per_second 12.5 1000",
		"webapp.gae.dashboard.summary.default_module.requests_per_second 13 1005",
		"",
	}, "\n")
	if payload != want {
		t.Fatalf("payload mismatch:\ngot:  %q\nwant: %q", payload, want)
	}
}

func TestDeliverEscapesModuleSpaces(t *testing.T) {
	addr, received := fakeCarbon(t)
	sender := NewSender(Options{Addr: addr, Timeout: time.Second}, zerolog.Nop())

	records := []pipeline.Record{
		{Timestamp: time.Unix(1, 0), Fields: map[string]float64{"memory_usage_mb": 128}},
	}
	if err := sender.Deliver(context.Background(), "ns", "my module", records); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	payload := <-received
	if !strings.HasPrefix(payload, "ns.my_module_module.memory_usage_mb 128 1") {
		t.Fatalf("module name not sanitized: %q", payload)
	}
}

func TestDeliverWithoutAddressFails(t *testing.T) {
	sender := NewSender(Options{}, zerolog.Nop())
	records := []pipeline.Record{{Timestamp: time.Unix(1, 0), Fields: map[string]float64{"f": 1}}}

	if err := sender.Deliver(context.Background(), "ns", "m", records); err == nil {
		t.Fatal("missing address must fail")
	}
}

func TestDeliverNoRecordsIsNoop(t *testing.T) {
	// No listener; delivering nothing must not dial at all.
	sender := NewSender(Options{Addr: "127.0.0.1:1"}, zerolog.Nop())
	if err := sender.Deliver(context.Background(), "ns", "m", nil); err != nil {
		t.Fatalf("empty delivery must be a no-op: %v", err)
	}
}

func TestDeliverConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	sender := NewSender(Options{Addr: addr, Timeout: time.Second}, zerolog.Nop())
	records := []pipeline.Record{{Timestamp: time.Unix(1, 0), Fields: map[string]float64{"f": 1}}}

	if err := sender.Deliver(context.Background(), "ns", "m", records); err == nil {
		t.Fatal("refused connection must fail the delivery")
	}
}
