package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

func newMigrateCmd(configFile *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("load config failed: %w", err)
			}
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			msg, err := runMigrations(migrationSource(dir), cfg.Database.URL, direction)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default /migrations, then ./migrations)")
	return cmd
}

func migrationSource(dir string) string {
	if dir = strings.TrimSpace(dir); dir == "" {
		dir = "/migrations"
		if _, err := os.Stat(dir); err != nil {
			dir = "./migrations"
		}
	}
	return "file://" + dir
}

func runMigrations(sourceURL, databaseURL, direction string) (string, error) {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return "", fmt.Errorf("open migrations failed: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return "no migrations applied", nil
		}
		if verr != nil {
			return "", fmt.Errorf("read migration version failed: %w", verr)
		}
		return fmt.Sprintf("version %d (dirty=%t)", version, dirty), nil
	default:
		return "", fmt.Errorf("unknown migrate direction %q", direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return "migrations already up to date", nil
	}
	if err != nil {
		return "", fmt.Errorf("run migrations failed: %w", err)
	}
	return "migrations applied successfully", nil
}

func newCreateAdminCmd(configFile *string) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the bootstrap superadmin account if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(envPrefix + "_ADMIN_PASSWORD")
			}
			if err := validateAdminInput(email, password); err != nil {
				return err
			}

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("load config failed: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg.Database.MaxConns = 2
			pool, err := newDBPool(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect database failed: %w", err)
			}
			defer pool.Close()

			store := newPostgresStore(pool)
			hasher := service.NewAuthService(store.Users, store.Sessions, store.Audit, nil,
				service.WithBcryptCost(cfg.Security.BcryptCost))
			users := service.NewUserService(store, hasher, event.NewBus(), zap.NewNop())

			user, created, err := users.EnsureSuperAdmin(ctx, service.CreateUserRequest{
				Email:    email,
				Password: password,
				Name:     name,
			})
			if err != nil {
				return fmt.Errorf("create admin failed: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "user '%s' already exists with role %s, skip\n", user.Email, user.Role)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superadmin '%s' created successfully\n", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password (or "+envPrefix+"_ADMIN_PASSWORD)")
	return cmd
}

func validateAdminInput(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("--email is required")
	}
	if !isStrongPassword(password) {
		return errors.New("password must be >=12 chars and include upper/lowercase letters and digits")
	}
	return nil
}

func isStrongPassword(password string) bool {
	if len(password) < 12 {
		return false
	}
	return hasLower.MatchString(password) && hasUpper.MatchString(password) && hasDigit.MatchString(password)
}

func newHealthcheckCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Exit non-zero unless the local server reports ready",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealthcheck(cmd.Context(), url)
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/health/ready", "readiness endpoint")
	return cmd
}

func runHealthcheck(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck failed: status %d", resp.StatusCode)
	}
	return nil
}

func sanitizeCLIError(err error) string {
	if err == nil {
		return ""
	}

	text := strings.ReplaceAll(err.Error(), "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}
