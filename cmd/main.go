// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"playground-api/internal/api"
	"playground-api/internal/dataset"
	"playground-api/internal/geoip"
	"playground-api/internal/ingest"
	"playground-api/internal/logger"
	"playground-api/internal/metrics"
	"playground-api/internal/middleware"
	"playground-api/internal/migrate"
	"playground-api/internal/revgeo"
	"playground-api/internal/store"
	"playground-api/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	apiBase := utils.Env("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg, err := utils.AggregatorFromEnv()
	if err != nil {
		l.Error("config_aggregator_error", "err", err)
		os.Exit(1)
	}
	l.Info("config_aggregator", "strategy", agg.Strategy().String(), "district_keys", strings.Join(agg.KeyRules().Paths, ","),
		"feature_names", strings.Join(agg.NameRules().Paths, ","))

	opts := []dataset.Option{dataset.WithCache(revgeo.NewLRU(utils.EnvInt("LOCATE_LRU_SIZE", 4096), utils.EnvInt("LOCATE_LRU_TTL_S", 300)))}
	var st *store.Store
	if utils.PostgresEnabled() {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		l.Info("db_open_ok")
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
		opts = append(opts, dataset.WithPublisher(st), dataset.WithRecorder(st))
	} else {
		l.Info("db_disabled")
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	gr, err := geoip.Open(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		l.Error("geoip_open_error", "err", err)
	}
	defer gr.Close()

	hub := dataset.New(agg, opts...)

	// 数据源：行政区始终来自本地文件；配置 OVERPASS_AREA 时游乐场改为在线抓取
	dataDir := utils.Env("DATA_DIR", "data")
	files := ingest.FileSource{
		CityFile:        os.Getenv("CITY_FILE"),
		DistrictsFile:   os.Getenv("DISTRICTS_FILE"),
		PlaygroundsFile: os.Getenv("PLAYGROUNDS_FILE"),
	}
	if files.CityFile == "" && files.DistrictsFile == "" {
		files.CityFile = filepath.Join(dataDir, "city.geojson")
	}
	var src ingest.Source = files
	srcName := "file"
	if area := os.Getenv("OVERPASS_AREA"); area != "" {
		src = ingest.OverpassSource{
			Districts: files,
			Client:    ingest.NewOverpassClient(utils.Env("OVERPASS_URL", ingest.DefaultOverpassURL)),
			Area:      area,
		}
		srcName = "overpass"
	}
	l.Info("config_source", "source", srcName, "city", files.CityFile, "districts", files.DistrictsFile, "playgrounds", files.PlaygroundsFile)
	reload := func(ctx context.Context) (dataset.Stats, error) {
		return hub.Reload(ctx, srcName, src)
	}
	ingest.StartPeriodic(ctx, utils.EnvDuration("INGEST_INTERVAL", 15*time.Minute), func(ctx context.Context) error {
		_, err := reload(ctx)
		return err
	})

	deps := api.Deps{
		Hub:        hub,
		Redis:      rc,
		GeoIP:      gr,
		Reload:     reload,
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		LocateTTL:  time.Duration(utils.EnvInt("LOCATE_CACHE_TTL_S", 600)) * time.Second,
	}
	if st != nil {
		deps.Store = st
	}
	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(deps)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", api.Healthz)

	addr := utils.Env("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
		l.Info("server_shutdown")
	}()

	tlsEnable := os.Getenv("TLS_ENABLE")
	if tlsEnable == "true" {
		certPath := utils.Env("TLS_CERT_PATH", filepath.Join(dataDir, "certs", "server.crt"))
		keyPath := utils.Env("TLS_KEY_PATH", filepath.Join(dataDir, "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "playground-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}
