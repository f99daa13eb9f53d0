package engine

import (
	"sort"
	"testing"
)

func TestDefaultConditions(t *testing.T) {
	conds := DefaultConditions()

	for _, name := range []string{CondIQScoreAboveThreshold, CondInterviewPassed} {
		if !conds.Has(name) {
			t.Errorf("expected condition %q to be registered", name)
		}
	}
	if conds.Count() != 2 {
		t.Errorf("expected 2 conditions, got %d", conds.Count())
	}

	names := conds.Names()
	sort.Strings(names)
	want := []string{CondInterviewPassed, CondIQScoreAboveThreshold}
	sort.Strings(want)
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected names %v, got %v", want, names)
		}
	}
}

func TestConditions_Register(t *testing.T) {
	conds := NewConditions()

	if conds.Has("always") {
		t.Fatal("fresh registry must be empty")
	}

	conds.Register("always", func(any) bool { return true })

	pred, ok := conds.Get("always")
	if !ok {
		t.Fatal("expected registered predicate")
	}
	if !pred(nil) {
		t.Error("expected predicate to hold")
	}
}

func TestIQScorePredicate(t *testing.T) {
	conds := DefaultConditions()
	pred, ok := conds.Get(CondIQScoreAboveThreshold)
	if !ok {
		t.Fatal("expected iq predicate")
	}

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "int above", value: 90, want: true},
		{name: "int just above", value: 76, want: true},
		{name: "int at threshold", value: 75, want: false},
		{name: "int below", value: 40, want: false},
		{name: "float above", value: 75.5, want: true},
		{name: "float below", value: 74.9, want: false},
		{name: "int64", value: int64(80), want: true},
		{name: "string is not a number", value: "90", want: false},
		{name: "nil", value: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pred(tt.value); got != tt.want {
				t.Errorf("pred(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestInterviewPredicate(t *testing.T) {
	conds := DefaultConditions()
	pred, ok := conds.Get(CondInterviewPassed)
	if !ok {
		t.Fatal("expected interview predicate")
	}

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "passed", value: "passed_interview", want: true},
		{name: "failed", value: "failed_interview", want: false},
		{name: "empty", value: "", want: false},
		{name: "wrong type", value: 1, want: false},
		{name: "nil", value: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pred(tt.value); got != tt.want {
				t.Errorf("pred(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
