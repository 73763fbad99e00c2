// Command gosession-probe exercises a session manager against a live
// backend: it restores any persisted session, optionally logs in, and
// prints every session transition and audit event until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/netprobe"
	"github.com/MrEthical07/goSession/restapi"
)

func main() {
	var (
		baseURL    = flag.String("base-url", "", "backend base URL (required)")
		identifier = flag.String("login", "", "identifier to log in with; empty restores the persisted session only")
		secret     = flag.String("secret", "", "secret for -login")
		redisAddr  = flag.String("redis-addr", "", "redis address for credential persistence; if empty, REDIS_ADDR env or miniredis is used")
		prefix     = flag.String("prefix", "gosession", "credential bundle key prefix")
		interval   = flag.Duration("interval", time.Minute, "periodic revalidation interval")
		opaque     = flag.Bool("opaque-tokens", false, "accept non-JWT bearer tokens")
	)
	flag.Parse()

	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "-base-url is required")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Println("no redis configured; credentials persist to an in-process miniredis")
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	if cleanup != nil {
		defer cleanup()
	}
	defer client.Close()

	backend, err := restapi.NewClient(restapi.Config{
		BaseURL:   *baseURL,
		UserAgent: "gosession-probe",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend setup failed: %v\n", err)
		os.Exit(1)
	}

	probe := netprobe.NewPoller(netprobe.DialChecker{Address: dialTarget(*baseURL)}, 10*time.Second)
	probe.Start()
	defer probe.Close()

	cfg := goSession.MobileDefaults()
	cfg.Trigger.PeriodicInterval = *interval
	cfg.Store.KeyPrefix = *prefix
	cfg.Validation.AcceptOpaqueTokens = *opaque

	manager, err := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithBackend(backend).
		WithProbe(probe).
		WithAuditSink(goSession.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	unsubscribe, err := manager.SubscribeChanges(func(snap goSession.Snapshot) {
		who := "anonymous"
		if snap.Authenticated() && snap.User != nil {
			who = snap.User.Identifier
		}
		fmt.Printf("session: user=%s ready=%v offline=%v validated=%s\n",
			who, snap.Ready, snap.Offline, snap.LastValidatedAt.Format(time.RFC3339))
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "subscribe failed: %v\n", err)
		os.Exit(1)
	}
	defer unsubscribe()

	ctx := context.Background()
	outcome, err := manager.Start(ctx)
	fmt.Printf("startup validation: %s\n", outcome)
	if err != nil {
		fmt.Printf("startup validation error: %v\n", err)
	}

	if *identifier != "" {
		user, err := manager.Login(ctx, *identifier, *secret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("logged in as %s (%s)\n", user.Identifier, user.ID)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("shutting down")
}

func dialTarget(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host += ":443"
		default:
			host += ":80"
		}
	}
	return host
}
