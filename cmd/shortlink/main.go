package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"go-shortlink/internal/biz"
	"go-shortlink/internal/conf"
	"go-shortlink/internal/pkg/zaplog"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/joho/godotenv"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "shortlink"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
	// flaglevel is the minimum log level.
	flaglevel string

	id, _ = os.Hostname()
)

// clickDrainTimeout bounds how long shutdown waits for queued clicks.
const clickDrainTimeout = 10 * time.Second

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, eg: -conf config.yaml")
	flag.StringVar(&flaglevel, "log.level", "info", "log level: debug, info, warn or error")
}

func newApp(
	logger log.Logger,
	gs *grpc.Server,
	hs *http.Server,
	recorder *biz.ClickRecorder,
) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			gs,
			hs,
		),
		kratos.BeforeStart(func(ctx context.Context) error {
			return recorder.Start(ctx)
		}),
		// Servers are stopped by now, so no new clicks arrive while draining.
		kratos.AfterStop(func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, clickDrainTimeout)
			defer cancel()
			if err := recorder.Stop(ctx); err != nil {
				log.NewHelper(logger).Warnf("click recorder did not drain: %v", err)
			}
			return nil
		}),
	)
}

func main() {
	flag.Parse()

	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	zl, err := zaplog.NewProduction(flaglevel)
	if err != nil {
		panic(err)
	}
	defer zl.Sync()

	logger := log.With(zl,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)
	log.SetLogger(logger)

	c := config.New(
		config.WithSource(
			env.NewSource("SHORTLINK_"),
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}
	if bc.Auth == nil || bc.Auth.JWTSecret == "" {
		panic(errors.New("auth.jwt_secret is required"))
	}

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Shortlink, bc.Auth, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
