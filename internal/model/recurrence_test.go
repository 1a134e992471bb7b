package model

import (
	"testing"
	"time"
)

func dateUTC(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccursOnDaily(t *testing.T) {
	end := dateUTC(2026, 3, 7)
	s := Schedule{
		ID:           "sch-1",
		MedicationID: "med-1",
		Frequency:    FrequencyDaily,
		Times:        []string{"08:00"},
		StartDate:    dateUTC(2026, 3, 1),
		EndDate:      &end,
		Active:       true,
	}
	for d := 1; d <= 7; d++ {
		if !s.OccursOn(dateUTC(2026, 3, d)) {
			t.Fatalf("expected daily occurrence on 2026-03-%02d", d)
		}
	}
	if s.OccursOn(dateUTC(2026, 2, 28)) {
		t.Fatal("occurred before start date")
	}
	if s.OccursOn(dateUTC(2026, 3, 8)) {
		t.Fatal("occurred after inclusive end date")
	}
}

func TestOccursOnSpecificDays(t *testing.T) {
	s := Schedule{
		ID:           "sch-1",
		MedicationID: "med-1",
		Frequency:    FrequencySpecificDays,
		Times:        []string{"09:00"},
		SpecificDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		StartDate:    dateUTC(2026, 3, 2), // a Monday
		Active:       true,
	}
	hits := 0
	for d := 0; d < 14; d++ {
		day := dateUTC(2026, 3, 2).AddDate(0, 0, d)
		if s.OccursOn(day) {
			hits++
			switch day.Weekday() {
			case time.Monday, time.Wednesday, time.Friday:
			default:
				t.Fatalf("occurred on wrong weekday: %s", day.Weekday())
			}
		}
	}
	if hits != 6 {
		t.Fatalf("expected 6 occurrences over two weeks, got %d", hits)
	}
}

func TestOccursOnEveryXDays(t *testing.T) {
	start := dateUTC(2026, 3, 1)
	s := Schedule{
		ID:           "sch-1",
		MedicationID: "med-1",
		Frequency:    FrequencyEveryXDays,
		Times:        []string{"08:00"},
		EveryXDays:   3,
		StartDate:    start,
		Active:       true,
	}
	want := map[int]bool{1: true, 4: true, 7: true, 10: true, 13: true}
	for d := 1; d <= 14; d++ {
		got := s.OccursOn(dateUTC(2026, 3, d))
		if got != want[d] {
			t.Fatalf("day 2026-03-%02d: occurs=%v want=%v", d, got, want[d])
		}
	}
}

func TestOccursOnStartDateIsAlwaysOccurrence(t *testing.T) {
	s := Schedule{
		Frequency:  FrequencyEveryXDays,
		EveryXDays: 7,
		StartDate:  dateUTC(2026, 3, 5),
	}
	if !s.OccursOn(dateUTC(2026, 3, 5)) {
		t.Fatal("start date must be an occurrence (offset 0)")
	}
}

func TestOccursOnAsNeededNever(t *testing.T) {
	s := Schedule{
		Frequency: FrequencyAsNeeded,
		StartDate: dateUTC(2026, 3, 1),
	}
	for d := 0; d < 30; d++ {
		if s.OccursOn(dateUTC(2026, 3, 1).AddDate(0, 0, d)) {
			t.Fatal("as_needed schedule must never occur automatically")
		}
	}
}

func TestOccursOnEndBeforeStartIsEmpty(t *testing.T) {
	end := dateUTC(2026, 2, 1)
	s := Schedule{
		Frequency: FrequencyDaily,
		StartDate: dateUTC(2026, 3, 1),
		EndDate:   &end,
	}
	if s.OccursOn(dateUTC(2026, 2, 15)) || s.OccursOn(dateUTC(2026, 3, 1)) {
		t.Fatal("end before start must produce no occurrences")
	}
}

func TestTimesOnResolvesOrderedInstants(t *testing.T) {
	s := Schedule{
		Frequency: FrequencyMultipleDaily,
		Times:     []string{"20:00", "08:00"},
		StartDate: dateUTC(2026, 3, 1),
	}
	got := s.TimesOn(dateUTC(2026, 3, 2))
	if len(got) != 2 {
		t.Fatalf("expected 2 instants, got %d", len(got))
	}
	if got[0].Format("15:04") != "08:00" || got[1].Format("15:04") != "20:00" {
		t.Fatalf("instants not ascending: %v", got)
	}
	if got[0].Second() != 0 || got[0].Nanosecond() != 0 {
		t.Fatal("seconds must be zeroed")
	}
	if got[0].Format("2006-01-02") != "2026-03-02" {
		t.Fatalf("instant on wrong date: %s", got[0])
	}
}

func TestTimesOnEmptyWhenNoOccurrence(t *testing.T) {
	s := Schedule{
		Frequency:    FrequencySpecificDays,
		Times:        []string{"08:00"},
		SpecificDays: []time.Weekday{time.Sunday},
		StartDate:    dateUTC(2026, 3, 2),
	}
	if got := s.TimesOn(dateUTC(2026, 3, 3)); len(got) != 0 { // a Tuesday
		t.Fatalf("expected no instants, got %v", got)
	}
}
