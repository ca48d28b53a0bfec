package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kartyduel/backend/internal/catalog"
	"github.com/kartyduel/backend/internal/config"
	"github.com/kartyduel/backend/internal/game"
	"github.com/kartyduel/backend/internal/httpapi"
	"github.com/kartyduel/backend/internal/hub"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Fatal("load catalog", zap.Error(err))
		}
	}

	h := hub.NewHub(context.Background(), hub.Config{
		Catalog: cat,
		Rules: game.Rules{
			StartHP:        cfg.StartHP,
			MainPerHand:    cfg.MainCardsPerHand,
			SupportPerHand: cfg.SupportCardsPerHand,
			GambleAttempts: cfg.GambleAttempts,
		},
		RoundDelay: cfg.RoundDelay,
		Log:        log,
	})

	handler := httpapi.SetupRoutes(h, log)

	log.Info("listening",
		zap.String("addr", cfg.Addr),
		zap.Int("main_cards", len(cat.Mains)),
		zap.Int("support_cards", len(cat.Supports)))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
