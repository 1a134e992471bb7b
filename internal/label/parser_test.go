package label

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestParseLabeledLines(t *testing.T) {
	ex := Parse("Name: Metformin\nDosage: 500mg\nInstructions: Take with food twice daily")
	if ex.Name != "Metformin" {
		t.Fatalf("name = %q", ex.Name)
	}
	if ex.Dosage != "500mg" {
		t.Fatalf("dosage = %q", ex.Dosage)
	}
	if ex.Instructions != "Take with food twice daily" {
		t.Fatalf("instructions = %q", ex.Instructions)
	}
	if ex.Frequency != "multiple_daily" || len(ex.Times) != 2 {
		t.Fatalf("frequency = %q times = %v", ex.Frequency, ex.Times)
	}
}

func TestParseFreeTextNameAndDosage(t *testing.T) {
	ex := Parse("Metformin 500mg\nTake one tablet twice daily with meals")
	if ex.Name != "Metformin" {
		t.Fatalf("name = %q", ex.Name)
	}
	if ex.Dosage != "500mg" {
		t.Fatalf("dosage = %q", ex.Dosage)
	}
	if ex.Frequency != "multiple_daily" {
		t.Fatalf("frequency = %q", ex.Frequency)
	}
}

func TestParseEveryEightHours(t *testing.T) {
	ex := Parse("Amoxicillin 250mg\nTake every 8 hours")
	if ex.Frequency != "multiple_daily" {
		t.Fatalf("frequency = %q", ex.Frequency)
	}
	if len(ex.Times) != 3 {
		t.Fatalf("expected 3 times for q8h, got %v", ex.Times)
	}
}

func TestParseEveryThreeDays(t *testing.T) {
	ex := Parse("Apply patch every 3 days")
	if ex.Frequency != "every_x_days" || ex.EveryXDays != 3 {
		t.Fatalf("frequency = %q interval = %d", ex.Frequency, ex.EveryXDays)
	}
}

func TestParseEveryOtherDay(t *testing.T) {
	ex := Parse("Take one tablet every other day")
	if ex.Frequency != "every_x_days" || ex.EveryXDays != 2 {
		t.Fatalf("frequency = %q interval = %d", ex.Frequency, ex.EveryXDays)
	}
}

func TestParseWeekdayList(t *testing.T) {
	ex := Parse("Alendronate 70mg\nTake on Monday, Wednesday and Friday before breakfast")
	if ex.Frequency != "specific_days" {
		t.Fatalf("frequency = %q", ex.Frequency)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	if !reflect.DeepEqual(ex.SpecificDays, want) {
		t.Fatalf("days = %v, want %v", ex.SpecificDays, want)
	}
}

func TestParseAsNeeded(t *testing.T) {
	ex := Parse("Ibuprofen 200mg\nTake as needed for pain")
	if ex.Frequency != "as_needed" {
		t.Fatalf("frequency = %q", ex.Frequency)
	}
}

func TestParseOnceDaily(t *testing.T) {
	ex := Parse("Lisinopril 10mg\nTake once daily in the morning")
	if ex.Frequency != "daily" {
		t.Fatalf("frequency = %q", ex.Frequency)
	}
	if len(ex.Times) != 1 {
		t.Fatalf("times = %v", ex.Times)
	}
}

func TestParseUnreadableTextLeavesFieldsEmpty(t *testing.T) {
	ex := Parse("zzz qqq\nxyzzy")
	if ex.Dosage != "" || ex.Frequency != "" || ex.Instructions != "" {
		t.Fatalf("garbage text produced fields: %#v", ex)
	}
}

func TestClientScanImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scan-label" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		json.NewEncoder(w).Encode(visionResponse{
			Success: true,
			Text:    "Metformin 500mg\nTake twice daily with food",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	ex, err := client.ScanImage(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ex.Name != "Metformin" || ex.Dosage != "500mg" {
		t.Fatalf("unexpected extraction: %#v", ex)
	}
}

func TestClientPropagatesServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(visionResponse{Success: false, Error: "image too blurry"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if _, err := client.ScanImage(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for failed analysis")
	}
}

func TestClientDisabledWithoutURL(t *testing.T) {
	client := NewClient("", nil)
	if client.Enabled() {
		t.Fatal("empty URL reported enabled")
	}
	if _, err := client.ScanImage(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error when not configured")
	}
}
