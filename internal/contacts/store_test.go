package contacts

import (
	"fmt"
	"sync"
	"testing"
)

func TestFreshRecordStartsCollecting(t *testing.T) {
	s := NewStore()
	s.Update("whatsapp:+15551234567", func(rec *Record) {
		if rec.Stage != StageCollectingInfo {
			t.Fatalf("expected fresh record in collecting stage, got %s", rec.Stage)
		}
		if rec.Name != "" || rec.Email != "" || rec.Phone != "" {
			t.Fatalf("expected fresh record with empty fields, got %+v", rec)
		}
		if rec.Engaged {
			t.Fatalf("expected fresh record not engaged")
		}
	})
	if s.Len() != 1 {
		t.Fatalf("expected one contact, got %d", s.Len())
	}
}

func TestMergeFirstWriteWins(t *testing.T) {
	var r Record
	if !r.Merge("Jane Doe", "", "") {
		t.Fatalf("expected first merge to change the record")
	}
	if r.Merge("Someone Else", "", "") {
		t.Fatalf("expected second name merge to be a no-op")
	}
	if r.Name != "Jane Doe" {
		t.Fatalf("expected first-write-wins, got %q", r.Name)
	}

	r.Merge("", "jane@example.com", "5551234567")
	if !r.Complete() {
		t.Fatalf("expected record complete after all fields merged")
	}
}

func TestMissingOrder(t *testing.T) {
	var r Record
	got := r.Missing()
	want := []string{"name", "email", "phone"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	r.Name = "Jane"
	r.Phone = "5551234567"
	got = r.Missing()
	if len(got) != 1 || got[0] != "email" {
		t.Fatalf("expected [email], got %v", got)
	}
}

func TestResetClearsCycle(t *testing.T) {
	r := Record{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Phone:   "5551234567",
		Stage:   StageWaitingForTime,
		Engaged: true,
	}
	r.Reset()
	if r.Stage != StageCollectingInfo {
		t.Fatalf("expected reset stage collecting, got %s", r.Stage)
	}
	if r.Name != "" || r.Email != "" || r.Phone != "" || r.Engaged {
		t.Fatalf("expected reset to clear fields, got %+v", r)
	}
}

func TestUpdatePersistsMutations(t *testing.T) {
	s := NewStore()
	s.Update("c1", func(rec *Record) {
		rec.Merge("Jane Doe", "jane@example.com", "5551234567")
		rec.Stage = StageWaitingForTime
	})

	rec, ok := s.Get("c1")
	if !ok {
		t.Fatalf("expected record for c1")
	}
	if rec.Stage != StageWaitingForTime || rec.Name != "Jane Doe" {
		t.Fatalf("expected persisted mutation, got %+v", rec)
	}

	if _, ok := s.Get("unknown"); ok {
		t.Fatalf("expected no record for unknown id")
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	s := NewStore()
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("contact-%d", i%4)
			s.Update(id, func(rec *Record) {
				rec.Merge("Name", "mail@example.com", "5551234567")
				if rec.Complete() {
					rec.Stage = StageWaitingForTime
				}
			})
		}(i)
	}
	wg.Wait()

	if s.Len() != 4 {
		t.Fatalf("expected 4 contacts, got %d", s.Len())
	}
	for i := 0; i < 4; i++ {
		rec, ok := s.Get(fmt.Sprintf("contact-%d", i))
		if !ok || rec.Stage != StageWaitingForTime {
			t.Fatalf("expected contact-%d waiting for time, got %+v ok=%v", i, rec, ok)
		}
	}
}
