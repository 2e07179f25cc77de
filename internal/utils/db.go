package utils

import (
	"database/sql"
	"net/url"
	"os"

	_ "github.com/lib/pq"
)

// 文档注释：由环境变量拼装 PostgreSQL 连接串
// 背景：PG_DSN 优先；否则由 PG_HOST/PG_PORT/PG_USER/PG_PASSWORD/PG_DB/PG_SSLMODE 组装。
// 约束：用户名与密码经 URL 转义，密码含 @ : / 等字符时不会破坏连接串。
func BuildPostgresDSNFromEnv() string {
	if dsn := Env("PG_DSN", ""); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     Env("PG_HOST", "localhost") + ":" + Env("PG_PORT", "5432"),
		Path:     "/" + Env("PG_DB", "playground"),
		RawQuery: url.Values{"sslmode": {Env("PG_SSLMODE", "disable")}}.Encode(),
	}
	user := Env("PG_USER", "postgres")
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// PostgresEnabled：PG_ENABLE=false 时服务只在内存中运行，不发布聚合
func PostgresEnabled() bool {
	return os.Getenv("PG_ENABLE") != "false"
}

// OpenPostgresFromEnv 打开连接池；发布与导入记录是低频写入，默认连接数较小。
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(EnvInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(EnvInt("PG_MAX_IDLE_CONNS", 10))
	return db, nil
}
