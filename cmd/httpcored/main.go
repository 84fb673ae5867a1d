// Command httpcored is a demo binary wiring the application builder, the
// router, the middleware pipeline, the config loader, the logger, and the
// net/http server adapter into one runnable worker, following the shape of
// the teacher's cmd/rockstar/main.go.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wrenfield/httpcore/pkg/app"
	"github.com/wrenfield/httpcore/pkg/httpconf"
	"github.com/wrenfield/httpcore/pkg/httplog"
	"github.com/wrenfield/httpcore/pkg/httprequest"
	"github.com/wrenfield/httpcore/pkg/httpserver"
	"github.com/wrenfield/httpcore/pkg/middleware"
	"github.com/wrenfield/httpcore/pkg/router"
)

var (
	addr       = flag.String("addr", ":8080", "server address")
	configFile = flag.String("config", "", "configuration file (json, yaml, or toml)")
	version    = flag.Bool("version", false, "print version and exit")
)

const appVersion = "0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("httpcored v%s\n", appVersion)
		os.Exit(0)
	}

	logger := httplog.NewDefault()

	cfgMgr := httpconf.NewManager()
	if *configFile != "" {
		if err := cfgMgr.Load(*configFile); err != nil {
			logger.Error("failed to load config", "error", err, "path", *configFile)
			os.Exit(1)
		}
	}
	cfgMgr.LoadFromEnv()
	cfg := cfgMgr.Config()

	application := buildApplication(cfg, logger)
	srv := httpserver.New(application, logger)
	srv.ReadTimeout = cfg.RequestTimeout
	srv.WriteTimeout = cfg.RequestTimeout

	httpSrv := srv.HTTPServer(*addr)

	go func() {
		logger.Info("httpcored listening", "addr", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if err := httpSrv.Close(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func buildApplication(cfg httpconf.Config, logger httplog.Logger) *app.Application {
	return app.New().
		Prefix(cfg.RouterPrefix).
		DefaultEncoding(cfg.DefaultEncoding).
		Middleware(middleware.NewDefaultHeaders().Header("Server", "httpcore")).
		Resource("health", "/health", func(r *router.Resource) {
			r.GET(func(req *httprequest.HttpRequest) httprequest.Reply {
				resp := httprequest.NewResponse(http.StatusOK)
				resp.Body = []byte("ok")
				return httprequest.Reply{Response: resp}
			})
		}).
		Resource("echo", "/echo/{msg}", func(r *router.Resource) {
			r.GET(func(req *httprequest.HttpRequest) httprequest.Reply {
				resp := httprequest.NewResponse(http.StatusOK)
				resp.Body = []byte(req.Param("msg"))
				return httprequest.Reply{Response: resp}
			})
		}).
		DefaultResource(func(req *httprequest.HttpRequest) httprequest.Reply {
			return httprequest.Reply{Response: httprequest.NewResponse(http.StatusNotFound)}
		}).
		Finish()
}
