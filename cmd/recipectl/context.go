package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sakif/recipe-api/internal/auth"
	"github.com/sakif/recipe-api/internal/config"
	sqliteRepo "github.com/sakif/recipe-api/internal/repository/sqlite"
	"github.com/sakif/recipe-api/internal/service"
	"github.com/sakif/recipe-api/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app is the slice of the server's dependency graph the CLI needs.
type app struct {
	db      *sqliteRepo.DB
	users   *service.UserService
	recipes *service.RecipeService
	logger  *slog.Logger
}

// withApp opens the database, builds the services and hands them to fn.
// Log output goes to stderr so command output stays machine-readable.
func (c *commandContext) withApp(stderr io.Writer, fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return fmt.Errorf("create token service: %w", err)
	}
	media, err := storage.New(cfg.Server.MediaRoot, cfg.Server.MediaURL)
	if err != nil {
		return err
	}

	return fn(&app{
		db:      db,
		users:   service.NewUserService(db, auth.NewPasswordService(cfg.Auth.BcryptCost), tokens, logger),
		recipes: service.NewRecipeService(db, db, db, media, logger),
		logger:  logger,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
