package msm

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		policy string
		n      int
		want   int
	}{
		{"", 5, 1},
		{"60%", 5, 3},
		{"60%", 3, 1},
		{"60%", 1, 1},
		{"100%", 4, 4},
		{"-25%", 4, 3},
		{"-25%", 3, 3},
		{"3", 5, 3},
		{"3", 2, 3},
		{"-2", 5, 3},
		{"-2", 1, 1},
		{"7<30% 10<60%", 5, 5},
		{"7<30% 10<60%", 7, 7},
		{"7<30% 10<60%", 9, 2},
		{"7<30% 10<60%", 12, 7},
		{"2<-25% 9<-3", 2, 2},
		{"2<-25% 9<-3", 8, 6},
		{"2<-25% 9<-3", 12, 9},
		{"60%", 0, 0},
	}
	for _, tc := range tests {
		p := MustParse(tc.policy)
		if got := p.Required(tc.n); got != tc.want {
			t.Errorf("Parse(%q).Required(%d) = %d, want %d", tc.policy, tc.n, got, tc.want)
		}
	}
}

func TestRequired_GraduatedRaisesFraction(t *testing.T) {
	p := MustParse("7<30% 10<60%")

	short := float64(p.Required(9)) / 9
	long := float64(p.Required(12)) / 12
	if long <= short {
		t.Errorf("fraction above cutoff %.2f should exceed fraction below %.2f", long, short)
	}
}

func TestMatches(t *testing.T) {
	p := MustParse("60%")
	if !p.Matches(3, 5) {
		t.Error("3 of 5 should satisfy 60%")
	}
	if p.Matches(2, 5) {
		t.Error("2 of 5 should not satisfy 60%")
	}
	if p.Matches(0, 0) {
		t.Error("no clauses never match")
	}
	if MustParse("3").Matches(2, 2) {
		t.Error("requirement above clause count must not match")
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"abc", "5<", "<60%", "10<60% 7<30%", "150%", "3 7<30%", "x<30%", "-1<30%"} {
		if _, err := Parse(s); !errors.Is(err, domain.ErrInvalidPolicy) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidPolicy", s, err)
		}
	}
}

func TestString_RoundTrip(t *testing.T) {
	p := MustParse("  7<30% 10<60% ")
	if p.String() != "7<30% 10<60%" {
		t.Errorf("String() = %q", p.String())
	}

	var q Policy
	if err := q.UnmarshalText([]byte("60%")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if q.String() != "60%" || q.IsZero() {
		t.Errorf("UnmarshalText produced %q", q.String())
	}
}
