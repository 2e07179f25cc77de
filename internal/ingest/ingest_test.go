package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playground-api/internal/geo"
)

const cityFixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"boundary": "administrative", "admin_level": "10", "name": "Keskusta"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,10],[10,10],[10,0],[0,0]]]}},
    {"type": "Feature", "properties": {"boundary": "administrative", "admin_level": "8", "name": "City"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,50],[50,50],[50,0],[0,0]]]}},
    {"type": "Feature", "properties": {"leisure": "playground", "name": "Central Park Playground"},
     "geometry": {"type": "Point", "coordinates": [5,5]}},
    {"type": "Feature", "properties": {"leisure": "playground", "access": "private", "name": "Backyard"},
     "geometry": {"type": "Point", "coordinates": [6,6]}},
    {"type": "Feature", "properties": {"leisure": "park"},
     "geometry": {"type": "Point", "coordinates": [7,7]}}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestSplitCity(t *testing.T) {
	fc, err := LoadFeatureCollection(writeFile(t, "oulu.geojson", cityFixture))
	require.NoError(t, err)

	districts, playgrounds := SplitCity(fc)
	require.Len(t, districts, 1)
	assert.Equal(t, "Keskusta", districts[0].Properties["name"])
	require.Len(t, playgrounds, 1)
	assert.Equal(t, "Central Park Playground", playgrounds[0].Properties["name"])
}

func TestLoadFeatureCollectionErrors(t *testing.T) {
	_, err := LoadFeatureCollection(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)

	_, err = LoadFeatureCollection(writeFile(t, "bad.geojson", "{not json"))
	assert.Error(t, err)
}

func TestFileSourceOverrides(t *testing.T) {
	city := writeFile(t, "city.geojson", cityFixture)
	extra := writeFile(t, "pg.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"tags":{"leisure":"playground","name":"A"}},"geometry":{"type":"Point","coordinates":[1,1]}},
		{"type":"Feature","properties":{"tags":{"leisure":"playground","name":"B"}},"geometry":{"type":"Point","coordinates":[2,2]}}
	]}`)

	districts, playgrounds, err := FileSource{CityFile: city, PlaygroundsFile: extra}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, districts, 1)
	assert.Len(t, playgrounds, 2)
}

func TestFileSourceWithoutDistricts(t *testing.T) {
	empty := writeFile(t, "empty.geojson", `{"type":"FeatureCollection","features":[]}`)
	_, _, err := FileSource{DistrictsFile: empty}.Load(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCollection))
}

const overpassFixture = `{
  "version": 0.6,
  "generator": "Overpass API",
  "elements": [
    {"type": "node", "id": 1, "lat": 65.01, "lon": 25.47, "tags": {"leisure": "playground", "name": "Hupisaaret"}},
    {"type": "node", "id": 2, "lat": 65.02, "lon": 25.48, "tags": {"leisure": "playground", "access": "private"}},
    {"type": "way", "id": 10, "nodes": [11, 12, 13, 11], "tags": {"leisure": "playground"}},
    {"type": "node", "id": 11, "lat": 65.00, "lon": 25.40},
    {"type": "node", "id": 12, "lat": 65.00, "lon": 25.41},
    {"type": "node", "id": 13, "lat": 65.01, "lon": 25.41}
  ]
}`

func TestDecodeOverpass(t *testing.T) {
	features, err := DecodeOverpass([]byte(overpassFixture))
	require.NoError(t, err)
	require.Len(t, features, 2)

	var named, areal int
	for _, f := range features {
		if geo.DefaultFeatureNames.FeatureKey(f) == "Hupisaaret" {
			named++
			assert.Equal(t, orb.Point{25.47, 65.01}, f.Geometry)
		}
		if _, ok := f.Geometry.(orb.Polygon); ok {
			areal++
			p, ok := geo.RepresentativePoint(f.Geometry)
			require.True(t, ok)
			assert.Equal(t, orb.Point{25.40, 65.00}, p)
		}
	}
	assert.Equal(t, 1, named)
	assert.Equal(t, 1, areal)
}

func TestOverpassClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !strings.Contains(r.Form.Get("data"), `area["name"="Oulu"]`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(overpassFixture))
	}))
	defer srv.Close()

	c := NewOverpassClient(srv.URL)
	features, err := c.FetchPlaygrounds(context.Background(), "Oulu")
	require.NoError(t, err)
	assert.Len(t, features, 2)

	_, err = c.FetchPlaygrounds(context.Background(), "Helsinki")
	assert.Error(t, err)

	_, err = c.FetchPlaygrounds(context.Background(), "")
	assert.Error(t, err)
}

func TestStartPeriodic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var runs atomic.Int32
	StartPeriodic(ctx, 10*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	})
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}
