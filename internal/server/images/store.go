package images

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store keeps image bytes and hands out URLs for stored keys.
type Store interface {
	Save(ctx context.Context, img *Image) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns recipes/YYYY/M/D/<uuid>.<ext>.
func NewStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("recipes/%d/%d/%d/%v.%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
