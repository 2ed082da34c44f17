package observ

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("load m.valm")
	tm.End(a, "2 modules")
	b := tm.Begin("lower m")
	tm.End(b, "")
	tm.End(b, "ended twice")
	tm.End(42, "ignored")
	tm.Begin("never ended")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(r.Phases))
	}
	if r.Phases[0].Name != "load m.valm" || r.Phases[0].Note != "2 modules" {
		t.Fatalf("unexpected first phase %+v", r.Phases[0])
	}
	if r.Phases[1].Name != "lower m" || r.Phases[1].Note != "" {
		t.Fatalf("unexpected second phase %+v", r.Phases[1])
	}
	s := tm.Summary()
	for _, want := range []string{"timings:", "load m.valm", "// 2 modules", "total", "wall"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary %q lacks %q", s, want)
		}
	}
	if strings.Contains(s, "never ended") {
		t.Fatalf("summary reports an unfinished phase: %q", s)
	}
}

func TestTimerWallTime(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx := tm.Begin("lower")
			time.Sleep(5 * time.Millisecond)
			tm.End(idx, "")
		}()
	}
	wg.Wait()

	r := tm.Report()
	if len(r.Phases) != 4 {
		t.Fatalf("got %d phases, want 4", len(r.Phases))
	}
	if r.WallMS <= 0 || r.WallMS > r.SumMS {
		t.Fatalf("wall %.2f ms should be positive and at most the sum %.2f ms", r.WallMS, r.SumMS)
	}
}

func TestTimerJSON(t *testing.T) {
	tm := NewTimer()
	tm.End(tm.Begin("dump m"), "3 functions")

	var buf bytes.Buffer
	if err := tm.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if len(got.Phases) != 1 || got.Phases[0].Name != "dump m" || got.Phases[0].Note != "3 functions" {
		t.Fatalf("unexpected report %+v", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer should report nothing")
	}
}
