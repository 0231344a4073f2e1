package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/battlens/battlens/pkg/config"
	"github.com/battlens/battlens/pkg/probe"
	"github.com/battlens/battlens/pkg/session"
)

var (
	sess *session.Session
	conf config.Config
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.PUT("/refresh-interval", setRefreshInterval)
	router.GET("/snapshot", getSnapshot)
	router.POST("/refresh", postRefresh)
	router.GET("/percentage", getPercentage)
	router.GET("/state", getState)
	router.GET("/present", getPresent)
	router.GET("/time-remaining", getTimeRemaining)
	router.GET("/wear", getWear)
	router.GET("/fast-charge", getFastCharge)
	router.GET("/sources", getSources)
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	registry := probe.DefaultRegistry(conf.ProbeTimeout(), conf.PreferredSources())
	sess = session.New(registry, conf.RefreshInterval())
	logrus.Infof("probing sources in trust order: %v", registry.Sources())

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Warm the snapshot cache so the first query does not pay for a
	// full probe cycle.
	go func() {
		snap := sess.Refresh(context.Background())
		logrus.WithFields(logrus.Fields{
			"present":   snap.Present,
			"batteries": len(snap.Batteries),
		}).Debug("initial probe cycle done")
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("exiting")
	return nil
}
