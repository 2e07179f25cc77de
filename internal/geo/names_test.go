package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRulesExtract(t *testing.T) {
	props := map[string]interface{}{
		"Aj_kaupu_1": "  ",
		"NIMI":       "Kaukovainio",
		"tags":       map[string]interface{}{"name": "Nested"},
		"num":        float64(42),
		"flag":       true,
	}
	assert.Equal(t, "Kaukovainio", DefaultDistrictKeys.Extract(props))
	assert.Equal(t, "Nested", DefaultFeatureNames.Extract(props))
	assert.Equal(t, "42", KeyRules{Paths: []string{"num"}}.Extract(props))
	assert.Equal(t, "fb", KeyRules{Paths: []string{"flag", "missing.deep"}, Fallback: "fb"}.Extract(props))
	assert.Equal(t, "Unknown District", DefaultDistrictKeys.Extract(nil))
}

func TestKeyRulesFromDecodedGeoJSON(t *testing.T) {
	raw := []byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[25.47,65.01]},
		"properties":{"type":"node","id":1,"tags":{"leisure":"playground","name":"Hupisaaret"}}}`)
	f, err := geojson.UnmarshalFeature(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hupisaaret", DefaultFeatureNames.FeatureKey(f))
}

func TestKeyRulesStringMapTags(t *testing.T) {
	props := map[string]interface{}{"tags": map[string]string{"name": "Flat"}}
	assert.Equal(t, "Flat", DefaultFeatureNames.Extract(props))
}

func TestKeyRulesJSONNumber(t *testing.T) {
	props := map[string]interface{}{"name": json.Number("7")}
	assert.Equal(t, "7", DefaultFeatureNames.Extract(props))
}

func TestParseKeyRules(t *testing.T) {
	r := ParseKeyRules(" NIMI , name ,", DefaultDistrictKeys)
	assert.Equal(t, []string{"NIMI", "name"}, r.Paths)
	assert.Equal(t, "Unknown District", r.Fallback)
	assert.Equal(t, DefaultFeatureNames, ParseKeyRules("", DefaultFeatureNames))
}
