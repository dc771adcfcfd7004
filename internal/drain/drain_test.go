package drain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{PollInterval: time.Millisecond, IdleLimit: 2, ChunkSize: 4}
}

func TestDrain_StaticReaders(t *testing.T) {
	d := New(fastConfig(), nil)

	res, err := d.Drain(context.Background(),
		strings.NewReader("hello world"),
		strings.NewReader("warn"),
	)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if res.Stdout != "hello world" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello world")
	}
	if res.Stderr != "warn" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "warn")
	}
	// 3 polls carry data (4-byte chunks of 11 bytes), then IdleLimit+1 empty polls.
	if res.Polls != 3+3 {
		t.Errorf("Polls = %d, want 6", res.Polls)
	}
}

func TestDrain_EmptyStopsAfterIdleLimit(t *testing.T) {
	cfg := Config{PollInterval: time.Millisecond, IdleLimit: 10}
	d := New(cfg, nil)

	res, err := d.Drain(context.Background(), strings.NewReader(""), nil)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if res.Polls != 11 {
		t.Errorf("Polls = %d, want 11 consecutive empty polls", res.Polls)
	}
	if res.Stdout != "" || res.Stderr != "" {
		t.Errorf("unexpected output %+v", res)
	}
}

// appendingFile returns a reader on a fresh file plus a function that
// appends to it, the way PBS delivers job output.
func appendingFile(t *testing.T) (*os.File, func(string)) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.out")
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r, func(s string) {
		if _, err := w.WriteString(s); err != nil {
			t.Errorf("append: %v", err)
		}
	}
}

func TestDrain_ShortPauseKeepsAllOutput(t *testing.T) {
	unit := 10 * time.Millisecond
	d := New(Config{PollInterval: unit, IdleLimit: 10}, nil)
	r, write := appendingFile(t)

	var wg sync.WaitGroup
	wg.Add(1)
	write("A")
	go func() {
		defer wg.Done()
		time.Sleep(unit)
		write("B")
	}()

	res, err := d.Drain(context.Background(), r, nil)
	wg.Wait()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if res.Stdout != "AB" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "AB")
	}
}

func TestDrain_LongPauseTruncatesWithoutHanging(t *testing.T) {
	unit := 5 * time.Millisecond
	d := New(Config{PollInterval: unit, IdleLimit: 3}, nil)
	r, write := appendingFile(t)

	var wg sync.WaitGroup
	wg.Add(1)
	write("A")
	go func() {
		defer wg.Done()
		time.Sleep(600 * time.Millisecond)
		write("B")
	}()

	start := time.Now()
	res, err := d.Drain(context.Background(), r, nil)
	elapsed := time.Since(start)
	wg.Wait()

	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if res.Stdout != "A" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "A")
	}
	if elapsed >= 600*time.Millisecond {
		t.Errorf("Drain took %v, should stop before the producer resumes", elapsed)
	}
}

func TestDrain_InterleavedStreams(t *testing.T) {
	unit := 5 * time.Millisecond
	d := New(Config{PollInterval: unit, IdleLimit: 8}, nil)
	out, writeOut := appendingFile(t)
	errR, writeErr := appendingFile(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			writeOut("o")
			time.Sleep(unit)
			writeErr("e")
			time.Sleep(unit)
		}
	}()

	res, err := d.Drain(context.Background(), out, errR)
	wg.Wait()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if res.Stdout != "ooo" || res.Stderr != "eee" {
		t.Errorf("got stdout %q stderr %q, want ooo / eee", res.Stdout, res.Stderr)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestDrain_ReadError(t *testing.T) {
	d := New(fastConfig(), nil)
	_, err := d.Drain(context.Background(), strings.NewReader("x"), failingReader{})
	if err == nil || !strings.Contains(err.Error(), "drain stderr") {
		t.Fatalf("err = %v, want drain stderr error", err)
	}
}

func TestDrain_ContextCancelled(t *testing.T) {
	d := New(Config{PollInterval: time.Hour, IdleLimit: 10}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := d.Drain(ctx, strings.NewReader("partial"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Stdout != "partial" {
		t.Errorf("Stdout = %q, want output read before cancellation", res.Stdout)
	}
}

func TestNew_Defaults(t *testing.T) {
	d := New(Config{}, nil)
	cfg := d.Config()
	def := DefaultConfig()
	if cfg.PollInterval != def.PollInterval || cfg.ChunkSize != def.ChunkSize {
		t.Errorf("Config = %+v, want defaults for zero fields", cfg)
	}
	if cfg.IdleLimit != 0 {
		t.Errorf("IdleLimit = %d, zero is a valid explicit limit", cfg.IdleLimit)
	}
	if def.IdleLimit != 10 || def.PollInterval != 2*time.Second {
		t.Errorf("DefaultConfig = %+v", def)
	}
}
