package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Text хранит отображаемое значение (стоимость, длительность, совет).
// Модель иногда отдает такие поля числом, поэтому из JSON принимается и строка, и число.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*t = Text(value)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("display text must be a string or a number, got %s", data)
	}
	*t = Text(number.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}

// UnmarshalJSON принимает duration числом или строкой. Нечисловая строка
// ("3 days") обнуляет значение, длительность потом пересчитывается по датам.
func (it *Itinerary) UnmarshalJSON(data []byte) error {
	type plain Itinerary
	aux := struct {
		*plain
		Duration json.RawMessage `json:"duration"`
	}{plain: (*plain)(it)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	it.Duration = parseDuration(aux.Duration)
	return nil
}

func parseDuration(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) || value > math.MaxInt32 {
		return 0
	}
	return int(value)
}
