package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
)

const DefaultTTL = 24 * time.Hour

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("session id is required")
)

// Session хранит текущий маршрут клиента и режим, в котором он получен.
type Session struct {
	ID        string               `json:"id"`
	Itinerary models.Itinerary     `json:"itinerary"`
	Mode      models.ItineraryMode `json:"mode"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type Store interface {
	Save(ctx context.Context, session Session) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	return id, nil
}
