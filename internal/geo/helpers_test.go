package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}}}
}

func district(name string, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	if name != "" {
		f.Properties["name"] = name
	}
	return f
}

func playground(name string, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	if name != "" {
		f.Properties["tags"] = map[string]interface{}{"name": name, "leisure": "playground"}
	}
	return f
}
