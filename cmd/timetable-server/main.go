package main

import (
	"context"
	"flag"
	"os"
	"time"

	"ctutimetable-backend/lib/resultcache"
	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/serviceutil"
	"ctutimetable-backend/lib/session"
	"ctutimetable-backend/lib/subjectstore"
	"ctutimetable-backend/services/catalog"
	"ctutimetable-backend/services/httpapi"
)

func InitCache(ctx context.Context, cfg CacheConfig) (resultcache.Cache, error) {
	if cfg.Redis.Url != "" {
		return resultcache.DialRedis(ctx, cfg.Redis.Url)
	}
	cache := resultcache.NewMemory()
	go cache.RunSweeper(ctx, cfg.SweepInterval())
	return cache, nil
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := LoadConfig(os.LookupEnv)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	names, err := subjectstore.Open(ctx, cfg.SubjectStore.Kind, cfg.SubjectStore.Locator)
	if err != nil {
		serviceutil.Fatal("init subject store", err)
	}
	defer names.Close()

	client, err := htql.NewClient(htql.ClientOptions{
		BaseUrl: cfg.Portal.BaseUrl,
		Timeout: time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
		CAFile:  cfg.Portal.CAFile,
	})
	if err != nil {
		serviceutil.Fatal("init portal client", err)
	}
	sessions := session.NewManager(client, session.Credentials{
		StudentId: cfg.Credentials.StudentId,
		Password:  cfg.Credentials.Password,
	})

	cache, err := InitCache(ctx, cfg.Cache)
	if err != nil {
		serviceutil.Fatal("init result cache", err)
	}

	service := catalog.NewService(catalog.Options{
		Scraper:  client,
		Sessions: sessions,
		Cache:    cache,
		Names:    names,
		TTL:      cfg.Cache.TTL(),
	})

	_, err = sessions.Login(ctx)
	if err != nil {
		serviceutil.Fatal("login to portal", err)
	}
	_, err = service.RefreshTerm(ctx)
	if err != nil {
		serviceutil.Fatal("discover registration term", err)
	}

	handler := httpapi.NewHandler(httpapi.Options{
		Catalog:      service,
		AllowOrigins: cfg.Http.AllowOrigins,
		RateLimit: httpapi.RateLimit{
			Requests: cfg.Http.RateLimit.Requests,
			Window:   time.Duration(cfg.Http.RateLimit.WindowSeconds) * time.Second,
		},
	})

	err = serviceutil.StartHttpServer(ctx, cfg.Http.Port, handler)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
