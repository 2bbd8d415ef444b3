// Package metrics holds the Prometheus collectors of the Foodgram server.
// Collectors register with the default registry on import; the REST layer
// exposes them on /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// kind: favorite, shopping_cart, subscription; action: add, remove
	RelationToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_toggles_total",
			Help: "Favorite, shopping cart and subscription toggles by outcome",
		},
		[]string{"kind", "action", "outcome"},
	)

	RecipesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_written_total",
			Help: "Recipes created or updated",
		},
		[]string{"operation"},
	)

	ImageUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_image_uploads_total",
			Help: "Recipe image uploads by result",
		},
		[]string{"result"},
	)

	ImageDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_image_deletes_total",
			Help: "Replaced or orphaned recipe images removed from storage by result",
		},
		[]string{"result"},
	)

	ShoppingListDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Shopping list downloads",
		},
	)
)

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorAlreadyExists):
		return "duplicate"
	case errors.Is(err, common.ErrorSelfReference):
		return "self_reference"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrorValidation):
		return "invalid"
	}
	return "error"
}

// RecordHTTPRequest records an API request metric. route is the chi route
// pattern, never the raw path, to keep cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordToggle(kind, action string, err error) {
	RelationToggles.WithLabelValues(kind, action, Outcome(err)).Inc()
}

func RecordRecipeWrite(operation string) {
	RecipesWritten.WithLabelValues(operation).Inc()
}

func RecordImageUpload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ImageUploads.WithLabelValues(result).Inc()
}

func RecordImageDelete(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ImageDeletes.WithLabelValues(result).Inc()
}
