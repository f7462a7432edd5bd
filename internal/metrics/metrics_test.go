package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"capsule/internal/app"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type occupancyFunc func(ctx context.Context) (app.Occupancy, error)

func (f occupancyFunc) Occupancy(ctx context.Context) (app.Occupancy, error) { return f(ctx) }

func TestCollector(t *testing.T) {
	c := NewCollector(occupancyFunc(func(context.Context) (app.Occupancy, error) {
		return app.Occupancy{Total: 22, Occupied: 1, Available: 21, OccupancyRate: 5}, nil
	}), zap.NewNop())

	expected := `
# HELP capsule_units_available Rentable units without a guest.
# TYPE capsule_units_available gauge
capsule_units_available 21
# HELP capsule_units_occupied Rentable units with a checked-in guest.
# TYPE capsule_units_occupied gauge
capsule_units_occupied 1
# HELP capsule_units_total Rentable units.
# TYPE capsule_units_total gauge
capsule_units_total 22
# HELP capsule_occupancy_rate_percent Occupied share of rentable units.
# TYPE capsule_occupancy_rate_percent gauge
capsule_occupancy_rate_percent 5
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestCollector_SourceError(t *testing.T) {
	c := NewCollector(occupancyFunc(func(context.Context) (app.Occupancy, error) {
		return app.Occupancy{}, errors.New("db down")
	}), zap.NewNop())

	_, err := testutil.CollectAndLint(c)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := NewRegistry(occupancyFunc(func(context.Context) (app.Occupancy, error) {
		return app.Occupancy{Total: 4, Occupied: 2, Available: 2, OccupancyRate: 50}, nil
	}), zap.NewNop())

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "capsule_occupancy_rate_percent 50")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
