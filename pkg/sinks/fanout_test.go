package sinks

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubSink struct {
	id     string
	err    error
	got    []Event
	closed bool
}

func (s *stubSink) ID() string   { return s.id }
func (s *stubSink) Type() string { return "stub" }
func (s *stubSink) Send(_ context.Context, evt Event) error {
	s.got = append(s.got, evt)
	return s.err
}
func (s *stubSink) Close() error {
	s.closed = true
	return nil
}

func TestFanoutSendsToAllAndJoinsErrors(t *testing.T) {
	ok := &stubSink{id: "ok"}
	bad := &stubSink{id: "bad", err: errors.New("boom")}
	f := NewFanout([]Sink{ok, nil, bad})

	if f.Size() != 2 {
		t.Fatalf("size = %d", f.Size())
	}
	n, err := f.Send(context.Background(), Event{RequestID: "r1"})
	if n != 1 {
		t.Fatalf("successful = %d", n)
	}
	if err == nil || !strings.Contains(err.Error(), "stub sink[bad]: boom") {
		t.Fatalf("err = %v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Fatal("every sink should receive the event")
	}
}

func TestFanoutCloseClosesSinks(t *testing.T) {
	a, b := &stubSink{id: "a"}, &stubSink{id: "b"}
	if err := NewFanout([]Sink{a, b}).Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Fatal("expected both sinks closed")
	}
}

func TestNilFanout(t *testing.T) {
	var f *Fanout
	if n, err := f.Send(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout send = %d, %v", n, err)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatal("nil fanout should be inert")
	}
}

func TestBuildAllUsesRegistry(t *testing.T) {
	built := &stubSink{id: "x"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, SinkConfig, Logger) (Sink, error) { return built, nil },
	})

	out, err := BuildAll(context.Background(), reg, []SinkConfig{{ID: "x", Type: "STUB"}}, nil)
	if err != nil || len(out) != 1 || out[0] != built {
		t.Fatalf("BuildAll = %v, %v", out, err)
	}

	_, err = BuildAll(context.Background(), reg, []SinkConfig{{ID: "x", Type: "stub"}, {ID: "y", Type: "nope"}}, nil)
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}
	if !built.closed {
		t.Fatal("sinks built before the failure should be closed")
	}
}
