package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	sviewer "github.com/go-echarts/statsview/viewer"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/auth"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/navigator"
	"github.com/tedious-mc/tedious/player"
	"github.com/tedious-mc/tedious/session"
	"github.com/tedious-mc/tedious/settings"
	"github.com/tedious-mc/tedious/viewer"
	"golang.org/x/oauth2"
)

func main() {
	configPath := flag.String("config", "config.toml", "path of the TOML or YAML config file")
	tokenPath := flag.String("token", "token.json", "path of the file the Live token is cached in")
	offline := flag.Bool("offline", false, "join without logging in, for servers in offline mode")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		if err := settings.SaveDefault(*configPath); err != nil {
			log.Fatalf("error creating config: %v", err)
		}
		log.Infof("created the default config at %s", *configPath)
	}
	conf, err := settings.Load(*configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	if conf.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if conf.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: conf.SentryDSN}); err != nil {
			log.Warnf("failed to set up sentry: %v", err)
		}
		defer sentry.Flush(time.Second * 5)
	}

	if addr := os.Getenv("STATSVIEW_ADDR"); addr != "" {
		// set configurations before calling `statsview.New()` method
		sviewer.SetConfiguration(sviewer.WithTheme(sviewer.ThemeWesteros), sviewer.WithAddr(addr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src oauth2.TokenSource
	if !*offline {
		provider := auth.NewProvider(conf.AuthConfig(*tokenPath), log)
		tok, err := provider.Token(ctx)
		if err != nil {
			log.Fatalf("error logging in: %v", err)
		}
		src = provider.TokenSource(ctx, tok)
	}

	address := net.JoinHostPort(conf.Server.Address, strconv.Itoa(conf.Server.Port))
	connect := func(ctx context.Context) (bot.Conn, error) {
		log.Infof("connecting to %s (version %s)", address, conf.Server.Version)
		p, err := player.Dial(ctx, player.Config{Address: address, TokenSource: src}, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	nav := func(c bot.Conn) bot.Navigator {
		return navigator.New(c.(*player.Player), log)
	}
	s := session.New(conf, connect, nav, log)

	if conf.Viewer.Enable {
		go func() {
			if err := viewer.New(s, log).ListenAndServe(ctx, conf.Viewer.Addr); err != nil {
				log.Errorf("viewer stopped: %v", err)
			}
		}()
	}

	if err := s.Run(ctx); err != nil {
		sentry.CaptureException(err)
		log.Errorf("session ended: %v", err)
		sentry.Flush(time.Second * 5)
		os.Exit(1)
	}
	log.Info("session finished")
}
