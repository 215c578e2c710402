package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"github.com/baalimago/miniagent/internal/models"
)

func fixedAppender(t *testing.T) *AppendToFile {
	t.Helper()
	a := NewAppendToFile(t.TempDir())
	a.now = func() time.Time {
		return time.Date(2025, time.November, 3, 9, 7, 0, 0, time.Local)
	}
	return a
}

func TestFormatLine(t *testing.T) {
	stamp := time.Date(2025, time.November, 3, 9, 7, 0, 0, time.UTC)
	testboil.FailTestIfDiff(t, FormatLine(stamp, "go news", "summary\n\n  "), "[03.11.2025 09:07] go news: summary\n")
}

func TestAppendToFile_Call(t *testing.T) {
	a := fixedAppender(t)
	got, err := a.Call(context.Background(), models.Input{"query": "go news", "content": "Go 1.24 is out. https://go.dev\n"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "written to agent.log")

	_, err = a.Call(context.Background(), models.Input{"query": "second", "content": "more"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	b, err := os.ReadFile(a.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	want := "[03.11.2025 09:07] go news: Go 1.24 is out. https://go.dev\n" +
		"[03.11.2025 09:07] second: more\n"
	testboil.FailTestIfDiff(t, string(b), want)
}

func TestAppendToFile_missingArgs(t *testing.T) {
	a := fixedAppender(t)
	for _, inp := range []models.Input{
		{},
		{"query": "only query"},
		{"content": "only content"},
	} {
		if _, err := a.Call(context.Background(), inp); err == nil {
			t.Errorf("expected error for input: %v", inp)
		}
	}
	if _, err := os.Stat(a.Path()); !os.IsNotExist(err) {
		t.Error("expected no log file to be created on invalid input")
	}
}

func TestAppendToFile_concurrent(t *testing.T) {
	a := fixedAppender(t)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Call(context.Background(), models.Input{"query": fmt.Sprintf("q%v", i), "content": "c"})
			if err != nil {
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()
	b, err := os.ReadFile(a.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	testboil.FailTestIfDiff(t, len(lines), 20)
	for _, l := range lines {
		if !strings.HasPrefix(l, "[03.11.2025 09:07] q") || !strings.HasSuffix(l, ": c") {
			t.Errorf("malformed line: %q", l)
		}
	}
}
