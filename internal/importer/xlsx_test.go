package importer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

// TestParseSampleWorkbook проверяет разбор книги в документированном формате.
func TestParseSampleWorkbook(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Amazing Tokyo Adventure"},
		{"Tokyo, Japan"},
		{"2024-03-15", "2024-03-20"},
		{},
		{"Day 1", "Arrival & Shibuya Exploration", "$150"},
		{"Activities"},
		{"09:00", "Arrival at Narita", "Land and clear customs", "Narita Airport", "2 hours", "Free", "Exchange some yen"},
		{"12:00", "", "Row without title is skipped"},
		{"Restaurants"},
		{"Ichiran Ramen", "Ramen", "$", "Yes", "Shibuya", "Famous tonkotsu ramen"},
		{"Gonpachi", "Izakaya", "$$", "no", "Shibuya"},
		{"Day 3", "Asakusa"},
		{"Dining"},
		{"Sometaro", "Okonomiyaki", "$", "TRUE", "Asakusa"},
	})

	it, err := Parse(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if it.Title != "Amazing Tokyo Adventure" || it.Destination != "Tokyo, Japan" {
		t.Fatalf("unexpected header %q / %q", it.Title, it.Destination)
	}
	if it.StartDate != "2024-03-15" || it.EndDate != "2024-03-20" || it.Duration != 6 {
		t.Fatalf("unexpected dates %s..%s (%d)", it.StartDate, it.EndDate, it.Duration)
	}
	if len(it.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(it.Days))
	}

	first := it.Days[0]
	if first.Day != 1 || first.Date != "2024-03-15" || first.EstimatedCost != "$150" {
		t.Fatalf("unexpected first day %+v", first)
	}
	if len(first.Activities) != 1 || first.Activities[0].Tips != "Exchange some yen" {
		t.Fatalf("unexpected activities %+v", first.Activities)
	}
	if len(first.Restaurants) != 2 {
		t.Fatalf("expected 2 restaurants, got %d", len(first.Restaurants))
	}
	if !first.Restaurants[0].VegetarianFriendly || first.Restaurants[1].VegetarianFriendly {
		t.Fatalf("unexpected vegetarian flags %+v", first.Restaurants)
	}
	if first.Restaurants[1].PriceRange != models.PriceRangeMedium {
		t.Fatalf("unexpected price range %q", first.Restaurants[1].PriceRange)
	}

	third := it.Days[1]
	if third.Day != 3 || third.Date != "2024-03-17" {
		t.Fatalf("expected day 3 on 2024-03-17, got %+v", third)
	}
	if len(third.Restaurants) != 1 || !third.Restaurants[0].VegetarianFriendly {
		t.Fatalf("unexpected dining section %+v", third.Restaurants)
	}
	if third.Activities == nil {
		t.Fatal("expected non-nil activities slice")
	}
}

// TestParseRowsDefaults проверяет значения по умолчанию для пустой шапки.
func TestParseRowsDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	it, err := parseRows(nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Title != "My Trip" || it.Destination != "Unknown Destination" {
		t.Fatalf("unexpected defaults %+v", it)
	}
	if it.StartDate != "2025-06-01" || it.Duration != 1 || len(it.Days) != 0 {
		t.Fatalf("unexpected dates %+v", it)
	}
}

// TestParseRowsDayHeaderDefaults проверяет заголовок дня без названия.
func TestParseRowsDayHeaderDefaults(t *testing.T) {
	rows := [][]string{
		{"Trip"}, {"Lisbon"}, {"2025-05-01", "2025-05-02"}, {},
		{"Day 2"},
		{"Activity"},
		{"10:00", "Tram 28"},
	}

	it, err := parseRows(rows, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(it.Days) != 1 || it.Days[0].Title != "Day 2" || it.Days[0].Date != "2025-05-02" {
		t.Fatalf("unexpected days %+v", it.Days)
	}
	if len(it.Days[0].Activities) != 1 {
		t.Fatalf("expected one activity, got %+v", it.Days[0].Activities)
	}
}

// TestParseRowsInvalidDates проверяет отказ при перепутанных датах.
func TestParseRowsInvalidDates(t *testing.T) {
	rows := [][]string{{"Trip"}, {"Rome"}, {"2025-05-10", "2025-05-01"}}

	if _, err := parseRows(rows, time.Now()); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	rows[2] = []string{"someday", "2025-05-01"}
	if _, err := parseRows(rows, time.Now()); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

// TestParseDateCellSerial проверяет серийный номер даты Excel.
func TestParseDateCellSerial(t *testing.T) {
	got, err := parseDateCell("45366")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(models.DateLayout) != "2024-03-15" {
		t.Fatalf("unexpected date %s", got.Format(models.DateLayout))
	}
}

// TestParseRejectsNonWorkbook проверяет ошибку для произвольных байтов.
func TestParseRejectsNonWorkbook(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatal("expected error")
	}
}
