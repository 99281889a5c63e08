package record

import (
	"testing"
	"time"
)

func TestStudent_Age(t *testing.T) {
	dob := time.Date(2008, time.March, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		dob  time.Time
		now  time.Time
		want int
	}{
		{name: "day before birthday", dob: dob, now: time.Date(2024, time.March, 14, 23, 0, 0, 0, time.UTC), want: 15},
		{name: "on birthday", dob: dob, now: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), want: 16},
		{name: "earlier month", dob: dob, now: time.Date(2024, time.January, 30, 0, 0, 0, 0, time.UTC), want: 15},
		{name: "later month", dob: dob, now: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), want: 16},
		{name: "unknown", now: time.Now(), want: 0},
		{name: "future", dob: dob, now: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Student{DateOfBirth: tt.dob}).Age(tt.now); got != tt.want {
				t.Errorf("Age() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNota_Band(t *testing.T) {
	tests := []struct {
		value, max float64
		want       Band
	}{
		{value: 8, max: 10, want: BandGood},
		{value: 10, max: 10, want: BandGood},
		{value: 7.9, max: 10, want: BandFair},
		{value: 6, max: 10, want: BandFair},
		{value: 5.9, max: 10, want: BandPoor},
		{value: 0, max: 10, want: BandPoor},
		{value: 16, max: 20, want: BandGood},
		{value: 5, max: 0, want: BandPoor},
	}
	for _, tt := range tests {
		n := Nota{Value: tt.value, MaxValue: tt.max}
		if got := n.Band(); got != tt.want {
			t.Errorf("Nota{%v/%v}.Band() = %v, want %v", tt.value, tt.max, got, tt.want)
		}
	}
}

func TestNewNota_Values(t *testing.T) {
	nn := NewNota{Value: " 8,5 ", MaxValue: ""}
	nn.Clean()
	value, maxValue, ok := nn.Values()
	if !ok || value != 8.5 || maxValue != DefaultMaxValue {
		t.Errorf("Values() = %v, %v, %v; want 8.5, 10, true", value, maxValue, ok)
	}

	nn = NewNota{Value: "oito"}
	if _, _, ok := nn.Values(); ok {
		t.Error("Values() ok for a non number")
	}
}
