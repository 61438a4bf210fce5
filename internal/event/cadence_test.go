package event

import (
	"testing"
	"time"
)

func TestParseCadence(t *testing.T) {
	tests := []struct {
		in      string
		want    Cadence
		wantErr bool
	}{
		{"daily", CadenceDaily, false},
		{"Weekly", CadenceWeekly, false},
		{"BI-WEEKLY", CadenceBiWeekly, false},
		{" monthly ", CadenceMonthly, false},
		{"bi-monthly", CadenceBiMonthly, false},
		{"quarterly", CadenceQuarterly, false},
		{"semi-annual", CadenceSemiAnnual, false},
		{"yearly", CadenceYearly, false},
		{"fortnightly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCadence(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCadence(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCadence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCadenceIntervals(t *testing.T) {
	if got := CadenceBiMonthly.MonthInterval(); got != 2 {
		t.Errorf("bi-monthly MonthInterval() = %d, want 2", got)
	}
	if got := CadenceSemiAnnual.MonthInterval(); got != 6 {
		t.Errorf("semi-annual MonthInterval() = %d, want 6", got)
	}
	if got := CadenceWeekly.MonthInterval(); got != 0 {
		t.Errorf("weekly MonthInterval() = %d, want 0", got)
	}
	if got := CadenceBiWeekly.WeekInterval(); got != 2 {
		t.Errorf("bi-weekly WeekInterval() = %d, want 2", got)
	}
	if got := CadenceDaily.WeekInterval(); got != 0 {
		t.Errorf("daily WeekInterval() = %d, want 0", got)
	}
}

func TestWeekdayNumber(t *testing.T) {
	if got := WeekdayNumber(time.Monday); got != 1 {
		t.Errorf("WeekdayNumber(Monday) = %d, want 1", got)
	}
	if got := WeekdayNumber(time.Saturday); got != 6 {
		t.Errorf("WeekdayNumber(Saturday) = %d, want 6", got)
	}
	// Sunday sorts last, not first.
	if got := WeekdayNumber(time.Sunday); got != 7 {
		t.Errorf("WeekdayNumber(Sunday) = %d, want 7", got)
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays([]string{"thursday", "Mon", "sun", "monday"})
	if err != nil {
		t.Fatalf("ParseWeekdays() error = %v", err)
	}
	want := []time.Weekday{time.Monday, time.Thursday, time.Sunday}
	if len(got) != len(want) {
		t.Fatalf("ParseWeekdays() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseWeekdays()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := ParseWeekdays([]string{"noday"}); err == nil {
		t.Error("ParseWeekdays() with unknown name: expected error")
	}

	empty, err := ParseWeekdays(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ParseWeekdays(nil) = %v, %v; want empty, nil", empty, err)
	}
}
