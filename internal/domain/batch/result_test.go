package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK(0, "rec-1", "Rio")
	if r.ID() != "rec-1" || r.Name() != "Rio" || r.Index() != 0 {
		t.Errorf("result = %+v", r)
	}
	if r.Status() != StatusOK || !r.OK() {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError(2, "", "Rome", err)
	if r.Index() != 2 || r.Name() != "Rome" {
		t.Errorf("result = %+v", r)
	}
	if r.Status() != StatusError || r.OK() {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestSummaryHelpers(t *testing.T) {
	boom := errors.New("boom")
	results := []Result{
		NewOK(0, "a", "Rio"),
		NewError(1, "", "Rome", boom),
		NewOK(2, "c", "Paris"),
	}

	s := Summarize(results)
	if s.OK != 2 || s.Failed != 1 {
		t.Errorf("Summarize = %+v", s)
	}
	ids := SucceededIDs(results)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("SucceededIDs = %v", ids)
	}
	if !errors.Is(FirstError(results), boom) {
		t.Errorf("FirstError = %v", FirstError(results))
	}
	if FirstError(results[:1]) != nil {
		t.Error("FirstError of all-ok batch should be nil")
	}
}
