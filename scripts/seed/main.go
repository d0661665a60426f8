package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/config"
	"homeservices/internal/database"
	"homeservices/internal/domain"
	"homeservices/internal/models"
	"homeservices/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type CatalogFile struct {
	Services []models.Service `yaml:"services"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath  = flag.String("config", "configs/config.yaml", "path to config.yaml")
		catalogPath = flag.String("catalog", "configs/catalog.yaml", "path to catalog.yaml")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(*catalogPath)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var catalog CatalogFile
	if err = yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	if len(catalog.Services) == 0 {
		return errors.New("no services in yaml")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens := auth.NewTokenManager(cfg.API.Auth.JWTSecret, cfg.API.Auth.TokenTTL, "homeservices")
	users := service.NewUserService(db, tokens, nil, cfg.API.Auth, &logger)
	createdAdmin, err := users.EnsureAdmin(ctx, cfg.Admin)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	created, updated := 0, 0
	for i := range catalog.Services {
		svc := &catalog.Services[i]
		if svc.Name == "" {
			continue
		}
		if !models.IsServiceCategory(svc.Category) {
			return fmt.Errorf("%s: unknown category %q", svc.Name, svc.Category)
		}

		existing, err := db.GetServiceByName(ctx, svc.Name)
		switch {
		case err == nil:
			if err = db.UpdateService(ctx, existing.ID, patchFrom(svc)); err != nil {
				return fmt.Errorf("update %s: %w", svc.Name, err)
			}
			updated++
		case errors.Is(err, domain.ErrNotFound):
			if err = db.CreateService(ctx, svc); err != nil {
				return fmt.Errorf("create %s: %w", svc.Name, err)
			}
			created++
		default:
			return fmt.Errorf("get %s: %w", svc.Name, err)
		}
	}

	fmt.Printf("done: services created=%d updated=%d admin_created=%t\n", created, updated, createdAdmin)
	return nil
}

// patchFrom overwrites every catalog-managed field; counters and ratings stay as recorded.
func patchFrom(svc *models.Service) models.ServicePatch {
	return models.ServicePatch{
		Category:     &svc.Category,
		Description:  &svc.Description,
		PriceMin:     &svc.PriceRange.Min,
		PriceMax:     &svc.PriceRange.Max,
		Currency:     &svc.PriceRange.Currency,
		ThumbnailURL: &svc.ThumbnailURL,
		Duration:     &svc.Duration,
		Features:     svc.Features,
		IsActive:     &svc.IsActive,
	}
}
