package main

import (
	"context"
	"log"
	"net/http"

	"github.com/Cameroonytoons/AniFig/api"
	"github.com/Cameroonytoons/AniFig/config"
	"github.com/Cameroonytoons/AniFig/controller"
	"github.com/Cameroonytoons/AniFig/document"
	"github.com/Cameroonytoons/AniFig/storage"
	"github.com/Cameroonytoons/AniFig/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var kv storage.KV
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := storage.NewSQLite(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("failed to open sqlite storage: %v", err)
		}
		defer db.Close()
		kv = db
	case "file", "":
		kv = storage.NewFile(cfg.Storage.Path)
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	policy := cfg.Policy()
	ctx := context.Background()

	st := store.New(kv, policy)
	if err := st.Init(ctx); err != nil {
		// Not fatal: the panel shows a blocking error state and can retry
		// through POST /api/animations/init.
		log.Printf("store initialization failed: %v", err)
	}

	doc := document.New()
	ctrl := controller.New(doc, kv, policy)
	if err := ctrl.Init(ctx); err != nil {
		// Not fatal either: check-ready answers with initialization-error
		// until a restart.
		log.Printf("controller initialization failed: %v", err)
	}

	router := api.RegisterRoutes(st, ctrl)
	log.Printf("anifig listening on %s (storage=%s %s)", cfg.Server.Addr, cfg.Storage.Backend, cfg.Storage.Path)
	if err := http.ListenAndServe(cfg.Server.Addr, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
