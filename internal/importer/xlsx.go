package importer

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

const (
	defaultTitle       = "My Trip"
	defaultDestination = "Unknown Destination"

	// Первые четыре строки заняты шапкой: название, направление, даты и пустая строка.
	firstDataRow = 4
)

var (
	ErrNoSheets    = errors.New("workbook has no sheets")
	ErrInvalidDate = errors.New("invalid trip dates")

	dayNumberPattern = regexp.MustCompile(`\d+`)
	dateLayouts      = []string{models.DateLayout, "2006/01/02", "01-02-06", "1/2/06", "1/2/2006", "02.01.2006"}
)

type section int

const (
	sectionNone section = iota
	sectionActivities
	sectionRestaurants
)

// Parse читает первый лист книги xlsx и собирает из него маршрут.
func Parse(r io.Reader) (models.Itinerary, error) {
	return parseAt(r, time.Now())
}

func parseAt(r io.Reader, now time.Time) (models.Itinerary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Itinerary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Itinerary{}, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.Itinerary{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return parseRows(rows, now)
}

func parseRows(rows [][]string, now time.Time) (models.Itinerary, error) {
	today := now.UTC().Format(models.DateLayout)

	it := models.Itinerary{
		Title:       orDefault(cell(rows, 0, 0), defaultTitle),
		Destination: orDefault(cell(rows, 1, 0), defaultDestination),
		Days:        []models.Day{},
	}

	start, err := parseDateCell(orDefault(cell(rows, 2, 0), today))
	if err != nil {
		return models.Itinerary{}, fmt.Errorf("%w: start date: %v", ErrInvalidDate, err)
	}
	end, err := parseDateCell(orDefault(cell(rows, 2, 1), today))
	if err != nil {
		return models.Itinerary{}, fmt.Errorf("%w: end date: %v", ErrInvalidDate, err)
	}
	if end.Before(start) {
		return models.Itinerary{}, fmt.Errorf("%w: end date is before start date", ErrInvalidDate)
	}

	it.StartDate = start.Format(models.DateLayout)
	it.EndDate = end.Format(models.DateLayout)
	it.Duration = models.DurationBetween(start, end)

	var current *models.Day
	state := sectionNone

	for i := firstDataRow; i < len(rows); i++ {
		row := rows[i]
		first := strings.TrimSpace(at(row, 0))
		if first == "" {
			continue
		}

		lower := strings.ToLower(first)
		switch {
		case strings.HasPrefix(lower, "day "):
			if current != nil {
				it.Days = append(it.Days, *current)
			}
			current = newDay(row, first, start)
			state = sectionNone
		case lower == "activities" || lower == "activity":
			state = sectionActivities
		case lower == "restaurants" || lower == "dining":
			state = sectionRestaurants
		case current != nil && state == sectionActivities:
			if activity := parseActivity(row); activity.Title != "" {
				current.Activities = append(current.Activities, activity)
			}
		case current != nil && state == sectionRestaurants:
			if restaurant := parseRestaurant(row); restaurant.Name != "" {
				current.Restaurants = append(current.Restaurants, restaurant)
			}
		}
	}

	if current != nil {
		it.Days = append(it.Days, *current)
	}

	return it, nil
}

func newDay(row []string, header string, start time.Time) *models.Day {
	number := 1
	if match := dayNumberPattern.FindString(header); match != "" {
		if parsed, err := strconv.Atoi(match); err == nil {
			number = parsed
		}
	}

	return &models.Day{
		Day:           number,
		Date:          start.AddDate(0, 0, number-1).Format(models.DateLayout),
		Title:         orDefault(strings.TrimSpace(at(row, 1)), fmt.Sprintf("Day %d", number)),
		EstimatedCost: models.Text(strings.TrimSpace(at(row, 2))),
		Activities:    []models.Activity{},
		Restaurants:   []models.Restaurant{},
	}
}

func parseActivity(row []string) models.Activity {
	return models.Activity{
		Time:        strings.TrimSpace(at(row, 0)),
		Title:       strings.TrimSpace(at(row, 1)),
		Description: strings.TrimSpace(at(row, 2)),
		Location:    strings.TrimSpace(at(row, 3)),
		Duration:    models.Text(strings.TrimSpace(at(row, 4))),
		Cost:        models.Text(strings.TrimSpace(at(row, 5))),
		Tips:        models.Text(strings.TrimSpace(at(row, 6))),
	}
}

func parseRestaurant(row []string) models.Restaurant {
	veg := strings.ToLower(strings.TrimSpace(at(row, 3)))

	return models.Restaurant{
		Name:               strings.TrimSpace(at(row, 0)),
		Cuisine:            strings.TrimSpace(at(row, 1)),
		PriceRange:         models.PriceRange(strings.TrimSpace(at(row, 2))),
		VegetarianFriendly: veg == "yes" || veg == "true",
		Location:           strings.TrimSpace(at(row, 4)),
		Description:        strings.TrimSpace(at(row, 5)),
	}
}

// parseDateCell принимает ISO-дату, несколько распространенных форматов и серийный номер Excel.
func parseDateCell(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func cell(rows [][]string, row, col int) string {
	if row >= len(rows) {
		return ""
	}
	return strings.TrimSpace(at(rows[row], col))
}

func at(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
