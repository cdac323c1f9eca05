package memory

import (
	"fmt"
	"testing"
)

func entry(turn int) Entry {
	return Entry{Turn: turn, Fingerprint: fmt.Sprintf("fp-%04d", turn), SummaryTag: "seed_resolved", Severity: turn % 5}
}

func TestAppendEvictsOldestFirst(t *testing.T) {
	var entries []Entry
	for turn := 1; turn <= Cap+5; turn++ {
		entries = Append(entries, entry(turn))
	}
	if len(entries) != Cap {
		t.Fatalf("len = %d, want cap %d", len(entries), Cap)
	}
	if entries[0].Turn != 6 {
		t.Fatalf("oldest surviving turn = %d, want 6", entries[0].Turn)
	}
	if entries[len(entries)-1].Turn != Cap+5 {
		t.Fatalf("newest turn = %d, want %d", entries[len(entries)-1].Turn, Cap+5)
	}
}

func TestAppendDoesNotMutateInput(t *testing.T) {
	entries := []Entry{entry(1), entry(2)}
	_ = Append(entries, entry(3))
	if len(entries) != 2 {
		t.Fatal("Append must not modify the input slice")
	}
}

func TestPickRecentEmpty(t *testing.T) {
	if _, ok := PickRecent(nil, 42, nil); ok {
		t.Fatal("empty log must return no entry")
	}
}

func TestPickRecentFilter(t *testing.T) {
	entries := []Entry{
		{Turn: 1, SummaryTag: "seed_resolved"},
		{Turn: 2, SummaryTag: "flashpoint_echo"},
		{Turn: 3, SummaryTag: "seed_resolved"},
	}
	got, ok := PickRecent(entries, 7, func(e Entry) bool { return e.SummaryTag == "flashpoint_echo" })
	if !ok || got.Turn != 2 {
		t.Fatalf("got %+v ok=%v, want the single flashpoint entry", got, ok)
	}
}

func TestPickRecentIsDeterministic(t *testing.T) {
	var entries []Entry
	for turn := 1; turn <= 15; turn++ {
		entries = Append(entries, entry(turn))
	}
	first, ok1 := PickRecent(entries, 99, nil)
	second, ok2 := PickRecent(entries, 99, nil)
	if !ok1 || !ok2 || first != second {
		t.Fatalf("picks differ: %+v vs %+v", first, second)
	}
}
