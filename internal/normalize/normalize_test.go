package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

// TestDecodeObjectRoundTrip проверяет, что валидный JSON не меняется при разборе.
func TestDecodeObjectRoundTrip(t *testing.T) {
	original := models.Itinerary{
		Title:       "Kyoto in Autumn",
		Destination: "Kyoto, Japan",
		StartDate:   "2025-11-01",
		EndDate:     "2025-11-03",
		Duration:    3,
		Overview:    "Temples, gardens: and tea, all in one trip.",
		Days: []models.Day{
			{
				Day:   1,
				Date:  "2025-11-01",
				Title: "Eastern Kyoto",
				Activities: []models.Activity{
					{Time: "09:00", Title: "Kiyomizu-dera", Location: "Higashiyama", Cost: "¥400"},
				},
				Restaurants: []models.Restaurant{
					{Name: "Okutan", Cuisine: "Tofu", PriceRange: models.PriceRangeMedium, VegetarianFriendly: true},
				},
			},
		},
	}

	payload, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodeObject[models.Itinerary](string(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

// TestDecodeObjectRepairsProse проверяет извлечение и ремонт объекта, окруженного текстом.
func TestDecodeObjectRepairsProse(t *testing.T) {
	text := "Here you go:\n{title: 'Trip', \"days\":[],}\n"

	decoded, err := DecodeObject[map[string]any](text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[string]any{"title": "Trip", "days": []any{}}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("expected %v, got %v", want, decoded)
	}
}

// TestRepair проверяет отдельные исправления.
func TestRepair(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trailing comma in object", `{"a": 1,}`, `{"a": 1}`},
		{"trailing comma in array", `["a", "b" , ]`, `["a", "b"  ]`},
		{"bare keys", `{a: 1, b_2: true}`, `{"a": 1, "b_2": true}`},
		{"single quotes", `{"a": 'it\'s "fine"'}`, `{"a": "it's \"fine\""}`},
		{"newline inside string", "{\"a\": \"line\none\"}", `{"a": "line one"}`},
		{"colon inside string untouched", `{"note": "lunch, then: ramen"}`, `{"note": "lunch, then: ramen"}`},
		{"literals in arrays", `[true, false, null]`, `[true, false, null]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Repair(tc.in); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

// TestDecodeFencedWithCitations проверяет снятие ограждений и маркеров цитат.
func TestDecodeFencedWithCitations(t *testing.T) {
	text := "```json\n[\"Kyoto has over 1,600 temples [1]\", \"Gion is the geisha district [2]\",]\n```"

	values, err := DecodeArray[[]string](text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []string{"Kyoto has over 1,600 temples ", "Gion is the geisha district "}
	if !reflect.DeepEqual(values, want) {
		t.Fatalf("expected %q, got %q", want, values)
	}
}

// TestDecodeTrailingProseWithBraces проверяет выбор сбалансированного фрагмента.
func TestDecodeTrailingProseWithBraces(t *testing.T) {
	text := `{"title": "Trip"} Let me know if you want changes {for example: more food}`

	decoded, err := DecodeObject[map[string]any](text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["title"] != "Trip" {
		t.Fatalf("unexpected decoded value %v", decoded)
	}
}

// TestItineraryMalformed проверяет класс ошибки и сохраненный ответ.
func TestItineraryMalformed(t *testing.T) {
	response := "Sorry, I cannot help with that. " + strings.Repeat("x", 1000)

	_, err := Itinerary(response)
	if err == nil {
		t.Fatal("expected error")
	}

	var normErr *Error
	if !errors.As(err, &normErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(normErr.Response) > maxResponseLen+3 {
		t.Fatalf("expected truncated response, got %d chars", len(normErr.Response))
	}
	if !strings.HasPrefix(normErr.Response, "Sorry") {
		t.Fatalf("expected original response prefix, got %q", normErr.Response[:20])
	}
	if !upstream.Is(err, upstream.KindMalformedResponse) {
		t.Fatalf("expected malformed-response kind, got %s", upstream.KindOf(err))
	}
}

// TestItineraryEmptyObject проверяет, что пустой объект считается ошибкой.
func TestItineraryEmptyObject(t *testing.T) {
	if _, err := Itinerary("{}"); err == nil {
		t.Fatal("expected error for empty itinerary")
	}
}

// TestItineraryNumericDisplayFields проверяет, что стоимость и длительность числом не ломают разбор.
func TestItineraryNumericDisplayFields(t *testing.T) {
	text := `{"title":"T","destination":"Rome","startDate":"2025-05-01","endDate":"2025-05-01",` +
		`"duration":1,"totalEstimatedCost":250,"days":[{"day":1,"title":"Center","estimatedCost":120.5,` +
		`"activities":[{"title":"Colosseum","cost":25,"duration":2,"tips":null}],"restaurants":[]}]}`

	it, err := Itinerary(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.TotalEstimatedCost != "250" {
		t.Fatalf("expected total cost 250, got %q", it.TotalEstimatedCost)
	}
	day := it.Days[0]
	if day.EstimatedCost != "120.5" {
		t.Fatalf("expected day cost 120.5, got %q", day.EstimatedCost)
	}
	activity := day.Activities[0]
	if activity.Cost != "25" || activity.Duration != "2" || activity.Tips != "" {
		t.Fatalf("unexpected activity fields %+v", activity)
	}
}

// TestItineraryDurationText проверяет разбор duration, заданного строкой.
func TestItineraryDurationText(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`3`, 3},
		{`"4"`, 4},
		{`"3 days"`, 0},
		{`null`, 0},
		{`-2`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			text := `{"title":"T","destination":"Rome","duration":` + tc.raw + `,"days":[]}`

			it, err := Itinerary(text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if it.Duration != tc.want {
				t.Fatalf("expected duration %d, got %d", tc.want, it.Duration)
			}
		})
	}
}

// TestItineraryRejectsObjectCost проверяет, что объект вместо текста по-прежнему ошибка.
func TestItineraryRejectsObjectCost(t *testing.T) {
	text := `{"title":"T","destination":"Rome","days":[{"day":1,"activities":[{"title":"x","cost":{"eur":5}}]}]}`

	if _, err := Itinerary(text); err == nil {
		t.Fatal("expected error for object cost")
	}
}

// TestFactsStrategies проверяет цепочку стратегий и политики отказа.
func TestFactsStrategies(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		facts, err := Facts(`["One fact about Lisbon", "Second fact about Lisbon", "Third", "Fourth fact"]`, 3, FailHard, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(facts) != 3 || facts[0] != "One fact about Lisbon" {
			t.Fatalf("unexpected facts %q", facts)
		}
	})

	t.Run("line heuristic", func(t *testing.T) {
		text := "Sure! Here are some facts:\n" +
			"1. Lisbon is older than Rome by about four centuries [3]\n" +
			"- Trams have run in Lisbon since 1873\n" +
			"• The city is built on seven hills\n" +
			"ok\n"

		facts, err := Facts(text, 3, FailHard, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"Sure! Here are some facts:",
			"Lisbon is older than Rome by about four centuries",
			"Trams have run in Lisbon since 1873",
		}
		if !reflect.DeepEqual(facts, want) {
			t.Fatalf("expected %q, got %q", want, facts)
		}
	})

	t.Run("fallback to empty", func(t *testing.T) {
		facts, err := Facts("no", 3, FallbackToEmpty, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if facts == nil || len(facts) != 0 {
			t.Fatalf("expected empty non-nil list, got %#v", facts)
		}
	})

	t.Run("fallback to default", func(t *testing.T) {
		defaults := []string{"a default fact", "another default fact"}
		facts, err := Facts("no", 1, FallbackToDefault, defaults)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(facts) != 1 || facts[0] != defaults[0] {
			t.Fatalf("unexpected facts %q", facts)
		}
	})

	t.Run("fail hard", func(t *testing.T) {
		if _, err := Facts("no", 3, FailHard, nil); err == nil {
			t.Fatal("expected error")
		}
	})
}

// TestLinesStripsQuotedArrayItems проверяет очистку строк из неполного JSON-массива.
func TestLinesStripsQuotedArrayItems(t *testing.T) {
	text := "[\n  \"Porto gave its name to Portugal\",\n  \"Port wine ages in Vila Nova de Gaia\"\n"

	facts := Lines(text, 3)
	want := []string{"Porto gave its name to Portugal", "Port wine ages in Vila Nova de Gaia"}
	if !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected %q, got %q", want, facts)
	}
}

// TestParsePolicy проверяет разбор политики из строки.
func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != FallbackToEmpty {
		t.Fatalf("expected empty default, got %q %v", p, err)
	}
	if p, err := ParsePolicy("FAIL"); err != nil || p != FailHard {
		t.Fatalf("expected fail, got %q %v", p, err)
	}
	if _, err := ParsePolicy("maybe"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
