// 离线工具：读取本地 GeoJSON，输出各行政区的游乐场聚合或单点定位结果（JSON，stdout）
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"playground-api/internal/ingest"
	"playground-api/internal/logger"
	"playground-api/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()

	var (
		src     ingest.FileSource
		variant string
		lat     float64
		lon     float64
	)
	flag.StringVar(&src.CityFile, "city", os.Getenv("CITY_FILE"), "city export containing districts and playgrounds")
	flag.StringVar(&src.DistrictsFile, "districts", os.Getenv("DISTRICTS_FILE"), "district FeatureCollection")
	flag.StringVar(&src.PlaygroundsFile, "features", os.Getenv("PLAYGROUNDS_FILE"), "playground FeatureCollection")
	flag.StringVar(&variant, "variant", "preview", "preview or detailed")
	flag.Float64Var(&lat, "lat", math.NaN(), "viewport center latitude")
	flag.Float64Var(&lon, "lon", math.NaN(), "viewport center longitude")
	flag.Parse()

	agg, err := utils.AggregatorFromEnv()
	if err != nil {
		l.Error("config_aggregator_error", "err", err)
		os.Exit(2)
	}
	districts, features, err := src.Load(context.Background())
	if err != nil {
		l.Error("load_error", "err", err)
		os.Exit(1)
	}
	l.Debug("load_ok", "districts", len(districts), "features", len(features))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if !math.IsNaN(lat) || !math.IsNaN(lon) {
		if math.IsNaN(lat) || math.IsNaN(lon) {
			fmt.Fprintln(os.Stderr, "both -lat and -lon are required")
			os.Exit(2)
		}
		loc := agg.Locate(districts, features, orb.Point{lon, lat})
		_ = enc.Encode(map[string]any{
			"found":    loc.Found,
			"district": loc.Key,
			"count":    len(loc.Features),
			"features": loc.Features,
		})
		return
	}

	res := agg.Aggregate(districts, features)
	switch variant {
	case "preview":
		_ = enc.Encode(res.Preview)
	case "detailed":
		_ = enc.Encode(res.Detailed)
	default:
		fmt.Fprintf(os.Stderr, "unknown variant %q\n", variant)
		os.Exit(2)
	}
	if res.Merges > 0 {
		l.Warn("district_key_merges", "merges", res.Merges)
	}
}
