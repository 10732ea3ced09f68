package ai

import (
	"fmt"
	"strings"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

func paceDensity(pace models.Pace) string {
	switch pace {
	case models.PaceRelaxed:
		return "2-3 activities per day"
	case models.PaceModerate:
		return "4-5 activities per day"
	default:
		return "6+ activities per day"
	}
}

func buildItineraryPrompt(input GenerateInput, duration int) string {
	interests := "general sightseeing"
	if len(input.Interests) > 0 {
		interests = strings.Join(input.Interests, ", ")
	}

	dietary := "All restaurant types"
	if input.VegetarianOnly {
		dietary = "Vegetarian restaurants only"
	}

	var preferences string
	if extra := strings.TrimSpace(input.AdditionalPreferences); extra != "" {
		preferences = fmt.Sprintf("- Additional preferences: %s\n", extra)
	}

	return fmt.Sprintf(`Create a detailed %d-day itinerary for %s from %s to %s.

Requirements:
- Pace: %s (%s)
- Interests: %s
- Budget: %s
- Dietary: %s
%s
For each day, include:
1. Activities with realistic timing (HH:MM format)
2. Detailed descriptions and practical tips
3. Location names for Google Maps
4. Duration and estimated costs in USD
5. 2-3 restaurant recommendations per day with cuisine type, price range ($, $$, $$$), and vegetarian-friendly status
6. Practical tips specific to each activity

Return exactly %d entries in "days", one per calendar date.

CRITICAL: Return ONLY valid JSON. No markdown, no code blocks, no backticks, no explanations.
- Use double quotes for all strings
- No trailing commas
- Escape all special characters in strings

Format:
{
  "title": "Trip title",
  "destination": %q,
  "startDate": %q,
  "endDate": %q,
  "duration": %d,
  "overview": "Brief trip overview",
  "totalEstimatedCost": "Total estimated cost",
  "practicalTips": ["tip1", "tip2", "tip3"],
  "days": [
    {
      "day": 1,
      "date": "YYYY-MM-DD",
      "title": "Day theme",
      "estimatedCost": "$XXX",
      "activities": [
        {
          "time": "09:00",
          "title": "Activity name",
          "description": "Detailed description",
          "location": "Exact location name for Google Maps",
          "duration": "2 hours",
          "cost": "$XX",
          "tips": "Practical tips"
        }
      ],
      "restaurants": [
        {
          "name": "Restaurant name",
          "cuisine": "Cuisine type",
          "priceRange": "$$",
          "vegetarianFriendly": %t,
          "location": "Address or area",
          "description": "Brief description"
        }
      ]
    }
  ]
}`,
		duration, input.Destination, input.StartDate, input.EndDate,
		input.Pace, paceDensity(input.Pace),
		interests,
		input.Budget,
		dietary,
		preferences,
		duration,
		input.Destination, input.StartDate, input.EndDate, duration,
		input.VegetarianOnly,
	)
}

func buildFactsPrompt(destination string, count int) string {
	return fmt.Sprintf(`Generate %d interesting, specific, and surprising travel facts about %s.

Include a mix of:
- Unique cultural aspects or local customs
- Historical facts or hidden gems
- Local cuisine highlights or must-try experiences

CRITICAL: Return ONLY a valid JSON array of strings. Each fact should be 1-2 sentences maximum.
- Use double quotes for strings
- No markdown, no code blocks, no explanations
- Start with [ and end with ]`, count, destination)
}
