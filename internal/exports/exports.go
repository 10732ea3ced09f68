package exports

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ParseFormat возвращает формат экспорта по имени из URL.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// ContentType возвращает MIME-тип вложения.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json; charset=utf-8"
	}
}

// Filename строит имя файла вида <slug>-itinerary.<ext>.
func Filename(it models.Itinerary, format Format) string {
	source := it.Title
	if strings.TrimSpace(source) == "" {
		source = it.Destination
	}

	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(source), "-"), "-")
	if slug == "" {
		slug = "trip"
	}

	return fmt.Sprintf("%s-itinerary.%s", slug, format)
}

// Write сериализует маршрут в выбранном формате.
func Write(w io.Writer, it models.Itinerary, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, it)
	case FormatCSV:
		return WriteCSV(w, it)
	case FormatPDF:
		return WritePDF(w, it)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func WriteJSON(w io.Writer, it models.Itinerary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(it); err != nil {
		return fmt.Errorf("encode itinerary json: %w", err)
	}
	return nil
}

// Row описывает одну строку CSV: активность или ресторан.
type Row struct {
	Day         int    `csv:"day"`
	Date        string `csv:"date"`
	Kind        string `csv:"kind"`
	Time        string `csv:"time,omitempty"`
	Name        string `csv:"name"`
	Description string `csv:"description,omitempty"`
	Location    string `csv:"location,omitempty"`
	Duration    string `csv:"duration,omitempty"`
	Cost        string `csv:"cost,omitempty"`
	Cuisine     string `csv:"cuisine,omitempty"`
	PriceRange  string `csv:"price_range,omitempty"`
	Vegetarian  bool   `csv:"vegetarian_friendly"`
	Tips        string `csv:"tips,omitempty"`
	MapURL      string `csv:"map_url,omitempty"`
	Image       string `csv:"image,omitempty"`
}

// Rows раскладывает маршрут в плоский список строк по дням.
func Rows(it models.Itinerary) []Row {
	rows := make([]Row, 0, it.LeafCount())
	for _, day := range it.Days {
		for _, activity := range day.Activities {
			rows = append(rows, Row{
				Day:         day.Day,
				Date:        day.Date,
				Kind:        "activity",
				Time:        activity.Time,
				Name:        activity.Title,
				Description: activity.Description,
				Location:    activity.Location,
				Duration:    activity.Duration.String(),
				Cost:        activity.Cost.String(),
				Tips:        activity.Tips.String(),
				MapURL:      activity.MapURL,
				Image:       activity.Image,
			})
		}
		for _, restaurant := range day.Restaurants {
			rows = append(rows, Row{
				Day:         day.Day,
				Date:        day.Date,
				Kind:        "restaurant",
				Name:        restaurant.Name,
				Description: restaurant.Description,
				Location:    restaurant.Location,
				Cuisine:     restaurant.Cuisine,
				PriceRange:  string(restaurant.PriceRange),
				Vegetarian:  restaurant.VegetarianFriendly,
				MapURL:      restaurant.MapURL,
				Image:       restaurant.Image,
			})
		}
	}
	return rows
}

func WriteCSV(w io.Writer, it models.Itinerary) error {
	payload, err := csvutil.Marshal(Rows(it))
	if err != nil {
		return fmt.Errorf("encode itinerary csv: %w", err)
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write itinerary csv: %w", err)
	}
	return nil
}
