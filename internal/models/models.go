package models

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Pace string

type BudgetTier string

type ItineraryMode string

type PriceRange string

const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PacePacked   Pace = "packed"

	BudgetTierBudget   BudgetTier = "budget"
	BudgetTierModerate BudgetTier = "moderate"
	BudgetTierLuxury   BudgetTier = "luxury"

	ModeGenerate ItineraryMode = "generate"
	ModeImport   ItineraryMode = "import"

	PriceRangeLow    PriceRange = "$"
	PriceRangeMedium PriceRange = "$$"
	PriceRangeHigh   PriceRange = "$$$"
)

type Itinerary struct {
	Title              string       `json:"title"`
	Destination        string       `json:"destination"`
	StartDate          string       `json:"startDate"`
	EndDate            string       `json:"endDate"`
	Duration           int          `json:"duration"`
	Overview           string       `json:"overview,omitempty"`
	TotalEstimatedCost Text         `json:"totalEstimatedCost,omitempty"`
	PracticalTips      []string     `json:"practicalTips,omitempty"`
	DietaryInfo        *DietaryInfo `json:"dietaryInfo,omitempty"`
	Days               []Day        `json:"days"`
}

type DietaryInfo struct {
	Vegetarian        bool     `json:"vegetarian"`
	Vegan             bool     `json:"vegan"`
	OtherRestrictions []string `json:"otherRestrictions,omitempty"`
}

type Day struct {
	Day           int          `json:"day"`
	Date          string       `json:"date"`
	Title         string       `json:"title"`
	EstimatedCost Text         `json:"estimatedCost,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Activities    []Activity   `json:"activities"`
	Restaurants   []Restaurant `json:"restaurants"`
}

type Activity struct {
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Duration    Text   `json:"duration,omitempty"`
	Cost        Text   `json:"cost,omitempty"`
	Tips        Text   `json:"tips,omitempty"`

	Enrichment
}

type Restaurant struct {
	Name               string     `json:"name"`
	Cuisine            string     `json:"cuisine"`
	PriceRange         PriceRange `json:"priceRange"`
	VegetarianFriendly bool       `json:"vegetarianFriendly"`
	Location           string     `json:"location"`
	Description        string     `json:"description,omitempty"`

	Enrichment
}

// Enrichment заполняется только проходом обогащения.
type Enrichment struct {
	Image     string   `json:"image,omitempty"`
	Images    []string `json:"images,omitempty"`
	MapURL    string   `json:"mapUrl,omitempty"`
	SearchURL string   `json:"searchUrl,omitempty"`
}

// ParseDate разбирает календарную дату в формате YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

// DurationBetween возвращает длительность поездки в днях включительно.
func DurationBetween(start, end time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// LeafCount возвращает количество активностей и ресторанов во всех днях.
func (it Itinerary) LeafCount() int {
	total := 0
	for _, day := range it.Days {
		total += len(day.Activities) + len(day.Restaurants)
	}
	return total
}

// Validate проверяет обязательные поля и порядок дат.
func (it Itinerary) Validate() error {
	if strings.TrimSpace(it.Title) == "" {
		return errors.New("itinerary title is required")
	}
	if strings.TrimSpace(it.Destination) == "" {
		return errors.New("itinerary destination is required")
	}

	start, err := ParseDate(it.StartDate)
	if err != nil {
		return errors.New("invalid startDate format")
	}
	end, err := ParseDate(it.EndDate)
	if err != nil {
		return errors.New("invalid endDate format")
	}
	if end.Before(start) {
		return errors.New("endDate must not be before startDate")
	}

	return nil
}

// Clone возвращает глубокую копию маршрута.
func (it Itinerary) Clone() Itinerary {
	out := it
	out.PracticalTips = cloneStrings(it.PracticalTips)
	if it.DietaryInfo != nil {
		info := *it.DietaryInfo
		info.OtherRestrictions = cloneStrings(it.DietaryInfo.OtherRestrictions)
		out.DietaryInfo = &info
	}

	if it.Days != nil {
		out.Days = make([]Day, len(it.Days))
		for i, day := range it.Days {
			out.Days[i] = day.Clone()
		}
	}

	return out
}

// Clone возвращает глубокую копию дня.
func (d Day) Clone() Day {
	out := d
	if d.Activities != nil {
		out.Activities = make([]Activity, len(d.Activities))
		for i, activity := range d.Activities {
			activity.Images = cloneStrings(activity.Images)
			out.Activities[i] = activity
		}
	}
	if d.Restaurants != nil {
		out.Restaurants = make([]Restaurant, len(d.Restaurants))
		for i, restaurant := range d.Restaurants {
			restaurant.Images = cloneStrings(restaurant.Images)
			out.Restaurants[i] = restaurant
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
