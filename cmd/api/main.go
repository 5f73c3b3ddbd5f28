package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitewatch/api/internal/app"
	"sitewatch/api/internal/audit"
	"sitewatch/api/internal/authpw"
	"sitewatch/api/internal/clientstore"
	"sitewatch/api/internal/config"
	"sitewatch/api/internal/export"
	"sitewatch/api/internal/objstore"
	"sitewatch/api/internal/search"
	"sitewatch/api/internal/session"
	"sitewatch/api/internal/store"
)

func main() {
	cfg := config.Load()

	workbook, err := store.NewWorkbookStore(cfg.WorkbookPath)
	if err != nil {
		log.Fatalf("workbook: %v", err)
	}
	sidecar, err := store.NewSidecarStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("sidecar store: %v", err)
	}
	trail, err := audit.New(cfg.AuditRepoDir)
	if err != nil {
		log.Fatalf("audit trail: %v", err)
	}

	var ns clientstore.Namespace
	var sessions session.Store
	if cfg.RedisURL != "" {
		redisNS, err := clientstore.NewRedisNamespace(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis client-storage: %v", err)
		}
		ns = redisNS
		redisSessions, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis sessions: %v", err)
		}
		sessions = redisSessions
	} else {
		log.Println("REDIS_URL not set; client-storage and sessions are in-memory")
		ns = clientstore.NewMemoryNamespace()
		sessions = session.NewMemoryStore()
	}

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	} else {
		log.Println("MEILI_URL not set; search uses the in-memory index")
	}
	searchSvc := search.NewService(meili, search.NewMemory())

	var objects *objstore.Store
	if cfg.S3Endpoint != "" && cfg.S3Bucket != "" && cfg.S3AccessKey != "" {
		objects, err = objstore.New(objstore.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
			URLExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			log.Fatalf("object storage: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := objects.EnsureBucket(ctx); err != nil {
			log.Printf("object storage: ensure bucket: %v", err)
		}
		cancel()
	} else {
		log.Println("Wasabi storage not configured; upload endpoints disabled")
	}

	svc := app.NewService(app.Options{
		Config:        cfg,
		Workbook:      workbook,
		Sidecar:       sidecar,
		ClientStorage: ns,
		Sessions:      sessions,
		Accounts:      authpw.NewService(ns, cfg.AdminEmail),
		Search:        searchSvc,
		Trail:         trail,
		Objects:       objects,
		Exporter:      export.NewService(),
	})
	if err := svc.ReindexAll(); err != nil {
		log.Printf("search reindex: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.NewServer(svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
