package exports

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

const (
	qrSize     = 30.0
	qrPixels   = 256
	pageMargin = 15.0
)

// RouteURL строит ссылку Google Maps с маршрутом по локациям активностей дня.
func RouteURL(day models.Day, destination string) string {
	stops := make([]string, 0, len(day.Activities))
	for _, activity := range day.Activities {
		location := strings.TrimSpace(activity.Location)
		if location == "" {
			continue
		}
		if destination != "" {
			location += ", " + destination
		}
		stops = append(stops, url.PathEscape(location))
	}
	if len(stops) == 0 {
		return ""
	}
	return "https://www.google.com/maps/dir/" + strings.Join(stops, "/")
}

// WritePDF печатает маршрут по дням; у каждого дня есть QR-код с маршрутом на карте.
func WritePDF(w io.Writer, it models.Itinerary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 9, tr(it.Title), "", "L", false)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s | %s - %s | %d days", it.Destination, it.StartDate, it.EndDate, it.Duration)), "", "L", false)
	if it.Overview != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 5, tr(it.Overview), "", "L", false)
	}
	if it.TotalEstimatedCost != "" {
		pdf.MultiCell(0, 5, tr("Estimated cost: "+it.TotalEstimatedCost.String()), "", "L", false)
	}
	for _, tip := range it.PracticalTips {
		pdf.MultiCell(0, 5, tr("- "+tip), "", "L", false)
	}

	for _, day := range it.Days {
		if err := writeDay(pdf, tr, day, it.Destination); err != nil {
			return err
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render itinerary pdf: %w", err)
	}
	return nil
}

func writeDay(pdf *gofpdf.Fpdf, tr func(string) string, day models.Day, destination string) error {
	pdf.Ln(6)
	top := pdf.GetY()

	pdf.SetFont("Arial", "B", 14)
	header := fmt.Sprintf("Day %d - %s", day.Day, day.Title)
	if day.Date != "" {
		header += " (" + day.Date + ")"
	}
	pdf.MultiCell(150, 7, tr(header), "", "L", false)

	if route := RouteURL(day, destination); route != "" {
		png, err := qrcode.Encode(route, qrcode.Medium, qrPixels)
		if err != nil {
			return fmt.Errorf("encode route qr for day %d: %w", day.Day, err)
		}

		name := fmt.Sprintf("route-day-%d", day.Day)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pageWidth, _ := pdf.GetPageSize()
		pdf.ImageOptions(name, pageWidth-pageMargin-qrSize, top, qrSize, qrSize, false, opts, 0, route)
	}

	if day.EstimatedCost != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(150, 5, tr("Estimated cost: "+day.EstimatedCost.String()), "", "L", false)
	}

	if len(day.Activities) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(150, 6, "Activities", "", "L", false)
		for _, activity := range day.Activities {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(0, 5, tr(strings.TrimSpace(activity.Time+" "+activity.Title)), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			if details := joinParts(activity.Location, activity.Duration.String(), activity.Cost.String()); details != "" {
				pdf.MultiCell(0, 5, tr(details), "", "L", false)
			}
			if activity.Description != "" {
				pdf.MultiCell(0, 5, tr(activity.Description), "", "L", false)
			}
			if activity.Tips != "" {
				pdf.MultiCell(0, 5, tr("Tip: "+activity.Tips.String()), "", "L", false)
			}
		}
	}

	if len(day.Restaurants) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, "Restaurants", "", "L", false)
		pdf.SetFont("Arial", "", 10)
		for _, restaurant := range day.Restaurants {
			line := joinParts(restaurant.Name, restaurant.Cuisine, string(restaurant.PriceRange), restaurant.Location)
			if restaurant.VegetarianFriendly {
				line += " | vegetarian friendly"
			}
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	if y := top + qrSize; pdf.GetY() < y && RouteURL(day, destination) != "" {
		pdf.SetY(y)
	}

	return pdf.Error()
}

func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " | ")
}
