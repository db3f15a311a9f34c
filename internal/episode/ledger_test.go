package episode

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func record(n int) Record {
	return Record{
		ID:           fmt.Sprintf("ep-%d", n),
		Text:         fmt.Sprintf("episode %d", n),
		LocalPath:    fmt.Sprintf("/tmp/episodes/podcast_episode_%d.mp3", n),
		RunTimestamp: fmt.Sprintf("20260101_0000%02d", n),
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
		Status:       StatusOK,
	}
}

func TestLedger_LatestEmpty(t *testing.T) {
	l := NewLedger(DefaultCapacity)

	_, err := l.Latest()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := l.All(); len(got) != 0 {
		t.Errorf("expected empty ledger, got %d records", len(got))
	}
}

func TestLedger_AppendKeepsOrder(t *testing.T) {
	l := NewLedger(DefaultCapacity)
	for i := 1; i <= 3; i++ {
		l.Append(record(i))
	}

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	for i, r := range all {
		if r.ID != fmt.Sprintf("ep-%d", i+1) {
			t.Errorf("record %d: expected ep-%d, got %s", i, i+1, r.ID)
		}
	}

	latest, err := l.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != "ep-3" {
		t.Errorf("expected latest ep-3, got %s", latest.ID)
	}
}

func TestLedger_EvictsOldest(t *testing.T) {
	tests := []struct {
		appends int
		wantLen int
		wantFst string
	}{
		{appends: 1, wantLen: 1, wantFst: "ep-1"},
		{appends: 10, wantLen: 10, wantFst: "ep-1"},
		{appends: 11, wantLen: 10, wantFst: "ep-2"},
		{appends: 25, wantLen: 10, wantFst: "ep-16"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("appends=%d", tt.appends), func(t *testing.T) {
			l := NewLedger(DefaultCapacity)
			for i := 1; i <= tt.appends; i++ {
				l.Append(record(i))
			}

			all := l.All()
			if len(all) != tt.wantLen {
				t.Fatalf("expected %d records, got %d", tt.wantLen, len(all))
			}
			if all[0].ID != tt.wantFst {
				t.Errorf("expected first record %s, got %s", tt.wantFst, all[0].ID)
			}
			for i := 1; i < len(all); i++ {
				if !all[i-1].CreatedAt.Before(all[i].CreatedAt) {
					t.Errorf("records %d and %d out of order", i-1, i)
				}
			}
			if last := all[len(all)-1].ID; last != fmt.Sprintf("ep-%d", tt.appends) {
				t.Errorf("expected last record ep-%d, got %s", tt.appends, last)
			}
		})
	}
}

func TestLedger_AppendReturnsSnapshot(t *testing.T) {
	l := NewLedger(2)
	l.Append(record(1))
	l.Append(record(2))
	snap := l.Append(record(3))

	if len(snap) != 2 || snap[0].ID != "ep-2" || snap[1].ID != "ep-3" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestLedger_ReturnsCopies(t *testing.T) {
	l := NewLedger(DefaultCapacity)
	r := record(1)
	r.Notes = []string{"original"}
	l.Append(r)

	all := l.All()
	all[0].Text = "mutated"
	all[0].Notes[0] = "mutated"

	latest, _ := l.Latest()
	if latest.Text != "episode 1" {
		t.Errorf("ledger text mutated through All(): %q", latest.Text)
	}
	if latest.Notes[0] != "original" {
		t.Errorf("ledger notes mutated through All(): %q", latest.Notes[0])
	}
}

func TestLedger_ConcurrentAppend(t *testing.T) {
	l := NewLedger(DefaultCapacity)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Append(record(n))
			_ = l.All()
			_, _ = l.Latest()
		}(i)
	}
	wg.Wait()

	if l.Len() != DefaultCapacity {
		t.Errorf("expected %d records, got %d", DefaultCapacity, l.Len())
	}
}

func TestRecord_ArtifactRef(t *testing.T) {
	r := record(1)
	if r.ArtifactRef() != r.LocalPath {
		t.Errorf("expected local path fallback, got %s", r.ArtifactRef())
	}

	r.PublicURL = "https://cdn.example.com/episodes/podcast_episode_1.mp3"
	if r.ArtifactRef() != r.PublicURL {
		t.Errorf("expected public URL, got %s", r.ArtifactRef())
	}
}

func TestFailed(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	r := Failed("id", now, "boom")

	if r.Text != ErrorText || r.ArtifactRef() != ErrorArtifact {
		t.Errorf("unexpected failed record: %+v", r)
	}
	if r.RunTimestamp != "20260304_050607" {
		t.Errorf("unexpected timestamp %s", r.RunTimestamp)
	}
	if r.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", r.Status)
	}
}

func TestNewLedger_CapacityBounds(t *testing.T) {
	tests := map[int]int{0: DefaultCapacity, -3: DefaultCapacity, 4: 4, DefaultCapacity: DefaultCapacity, 50: DefaultCapacity}
	for in, want := range tests {
		if got := NewLedger(in).Cap(); got != want {
			t.Errorf("NewLedger(%d).Cap() = %d, want %d", in, got, want)
		}
	}

	l := NewLedger(50)
	for i := 1; i <= 15; i++ {
		l.Append(record(i))
	}
	if l.Len() != DefaultCapacity {
		t.Errorf("ledger grew to %d records", l.Len())
	}
}

func TestLedger_AppendEvicting(t *testing.T) {
	l := NewLedger(2)

	for i := 1; i <= 2; i++ {
		if _, evicted := l.AppendEvicting(record(i)); len(evicted) != 0 {
			t.Fatalf("append %d evicted %v", i, evicted)
		}
	}

	retained, evicted := l.AppendEvicting(record(3))
	if len(evicted) != 1 || evicted[0].ID != "ep-1" {
		t.Fatalf("expected ep-1 evicted, got %v", evicted)
	}
	if len(retained) != 2 || retained[0].ID != "ep-2" || retained[1].ID != "ep-3" {
		t.Errorf("unexpected retained records %v", retained)
	}
}
