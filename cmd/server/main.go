package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"oidcprovider/internal/account"
	"oidcprovider/internal/audit"
	"oidcprovider/internal/client"
	clientstore "oidcprovider/internal/client/store"
	"oidcprovider/internal/interaction"
	"oidcprovider/internal/oidc/responder"
	"oidcprovider/internal/platform/config"
	"oidcprovider/internal/platform/httpserver"
	"oidcprovider/internal/platform/logger"
	"oidcprovider/internal/platform/metrics"
	"oidcprovider/internal/platform/postgres"
	"oidcprovider/internal/platform/redis"
	"oidcprovider/internal/provider"
	authorizationcode "oidcprovider/internal/store/authorization-code"
	"oidcprovider/internal/store/grant"
	interactionstore "oidcprovider/internal/store/interaction"
	refreshtoken "oidcprovider/internal/store/refresh-token"
	"oidcprovider/internal/store/revocation"
	"oidcprovider/internal/store/session"
	"oidcprovider/internal/token"
	httptransport "oidcprovider/internal/transport/http"
	"oidcprovider/pkg/platform/circuit"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (overrides OIDC_CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the stores, services and HTTP server, then blocks until ctx is
// cancelled or a component fails.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	publisher := audit.NewPublisher(audit.WithLogger(log), audit.WithDroppedCounter(m.AuditDropped))
	sinks := []audit.Sink{audit.NewLogSink(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("kafka audit sink: %w", err)
		}
		defer kafkaSink.Close()
		if err := kafkaSink.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		sinks = append(sinks, audit.NewBreakerSink(kafkaSink, circuit.New("kafka"), log))
		log.InfoContext(ctx, "kafka audit sink enabled", "topic", cfg.Kafka.Topic)
	}

	expiring := map[string]expirer{}

	var clientStore client.Store = clientstore.NewInMemory()
	var trl interface {
		token.Revocations
		provider.RevocationList
	}
	memTRL := revocation.NewInMemoryTRL()
	trl = memTRL
	expiring["revocation"] = memTRL

	if cfg.Postgres.DSN != "" {
		pg, err := postgres.Open(ctx, cfg.Postgres.DSN, clientstore.Schema, revocation.Schema)
		if err != nil {
			return err
		}
		defer pg.Close()
		clientStore = clientstore.NewPostgres(pg.Pool)
		pgTRL := revocation.NewPostgresTRL(pg.DB)
		trl = pgTRL
		expiring["revocation"] = pgTRL
		log.InfoContext(ctx, "postgres client registry and revocation list enabled")
	}

	var (
		interactions interaction.Store
		grants       interface {
			interaction.GrantStore
			provider.GrantStore
		}
	)
	switch cfg.Storage.Backend {
	case "redis":
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		interactions = interactionstore.NewRedis(rc.Client, interactionstore.WithRedisMetrics(m))
		grants = grant.NewRedis(rc.Client)
		if cfg.Postgres.DSN == "" {
			trl = revocation.NewRedisTRL(rc.Client, revocation.WithRedisMetrics(m))
			delete(expiring, "revocation")
		}
		log.InfoContext(ctx, "redis storage backend enabled")
	default:
		memInteractions := interactionstore.NewInMemory(interactionstore.WithSweepInterval(cfg.Lifetimes.SweepInterval))
		memInteractions.StartSweeper()
		defer memInteractions.Close()
		interactions = memInteractions
		memGrants := grant.NewInMemory()
		grants = memGrants
		expiring["grants"] = memGrants
	}

	codes := authorizationcode.New()
	refreshTokens := refreshtoken.New()
	sessions := session.New()
	expiring["authorization_codes"] = codes
	expiring["refresh_tokens"] = refreshTokens
	expiring["sessions"] = sessions

	accounts, err := account.NewStoreFromConfig(cfg.Accounts)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	clients := client.New(clientStore, client.WithLogger(log), client.WithAuditPublisher(publisher))
	if err := clients.Seed(ctx, cfg.Clients); err != nil {
		return fmt.Errorf("seed clients: %w", err)
	}

	keys, err := token.LoadKeySet(cfg.Keys.Algorithm, cfg.Keys.Files, time.Now())
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}
	issuer := token.NewIssuer(cfg.Server.Issuer, keys,
		token.WithLifetimes(token.Lifetimes{
			IDToken:      cfg.Lifetimes.IDToken,
			AccessToken:  cfg.Lifetimes.AccessToken,
			RefreshToken: cfg.Lifetimes.RefreshToken,
		}),
		token.WithRevocations(trl),
	)

	resp := responder.New(issuer, codes, accounts, cfg.Claims,
		responder.WithCodeTTL(cfg.Lifetimes.AuthorizationCode),
		responder.WithClaimsParameter(cfg.Features.ClaimsParameter),
	)

	coordinator := interaction.New(interactions, grants, sessions, accounts, clients, resp,
		interaction.Config{
			InteractionTTL: cfg.Lifetimes.Interaction,
			SessionTTL:     cfg.Lifetimes.Session,
			GrantTTL:       cfg.Lifetimes.Grant,
			URLTemplate:    cfg.Server.InteractionURL,
			DefaultACR:     interaction.DefaultConfig().DefaultACR,
		},
		interaction.WithLogger(log),
		interaction.WithAuditPublisher(publisher),
		interaction.WithMetrics(m),
	)

	oidc := provider.New(provider.Deps{
		Clients:       clients,
		Coordinator:   coordinator,
		Sessions:      sessions,
		Grants:        grants,
		Codes:         codes,
		RefreshTokens: refreshTokens,
		Revocations:   trl,
		Issuer:        issuer,
		Claims:        resp,
	},
		provider.WithFeatures(provider.Features{
			Discovery:         cfg.Features.Discovery,
			Introspection:     cfg.Features.Introspection,
			Revocation:        cfg.Features.Revocation,
			Registration:      cfg.Features.Registration,
			ClientCredentials: cfg.Features.ClientCredentials,
			ClaimsParameter:   cfg.Features.ClaimsParameter,
			SessionManagement: cfg.Features.SessionManagement,
		}),
		provider.WithClaimsMapping(cfg.Claims),
		provider.WithGrantTTL(cfg.Lifetimes.Grant),
		provider.WithLogger(log),
		provider.WithAuditPublisher(publisher),
		provider.WithMetrics(m),
	)

	handler := httptransport.New(oidc, coordinator,
		httptransport.WithLogger(log),
		httptransport.WithMetrics(m, reg),
		httptransport.WithSecureCookies(cfg.Server.SecureCookies),
	)
	srv := httpserver.New(cfg.Server.Addr, handler.Router(), cfg.Server.ReadHeaderTimeout)

	log.InfoContext(ctx, "starting oidc provider",
		"issuer", cfg.Server.Issuer,
		"storage", cfg.Storage.Backend,
		"signing_alg", cfg.Keys.Algorithm,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	g.Go(func() error {
		return audit.NewWorker(publisher.Events(), log, sinks...).Run(gctx)
	})
	g.Go(func() error {
		sw := &sweeper{interval: cfg.Lifetimes.SweepInterval, logger: log, stores: expiring}
		return sw.Run(gctx)
	})
	return g.Wait()
}
