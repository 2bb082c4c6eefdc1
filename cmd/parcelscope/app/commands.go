package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/internal/server"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// NewResolveCommand creates the resolve command.
func (a *App) NewResolveCommand() *cobra.Command {
	var (
		address1   string
		city       string
		state      string
		postalCode string
	)

	cmd := &cobra.Command{
		Use:   "resolve [query]",
		Short: "Resolve a property query",
		Long: `Resolve a free-text or structured property query and print the result.

Free text is classified automatically: queries with a leading street number
and a locality are treated as exact address lookups, everything else as a
general listings search.`,
		Example: `  # Free-text address lookup
  parcelscope resolve "100 Main St, Fort Worth, TX 76102"

  # General listings search
  parcelscope resolve "homes for sale in Fort Worth under $500k"

  # Structured address lookup
  parcelscope resolve --address1 "100 Main St" --city "Fort Worth" --state TX --zip 76102`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := properties.Query{
				Address1:   address1,
				City:       city,
				State:      state,
				PostalCode: postalCode,
			}
			if len(args) > 0 {
				query.RawText = args[0]
			}
			if query.IsZero() {
				return fmt.Errorf("supply a query string or structured address flags")
			}

			client, err := a.Client()
			if err != nil {
				return err
			}

			result, err := client.Resolve(cmd.Context(), query)
			if err != nil {
				return err
			}

			return a.printResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&address1, "address1", "", "street address line")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&state, "state", "", "state or region code")
	cmd.Flags().StringVar(&postalCode, "zip", "", "postal code")

	return cmd
}

// printResult writes a resolution result in the configured output format.
func (a *App) printResult(cmd *cobra.Command, result *properties.Result) error {
	if a.config.Output == "text" {
		printResultText(cmd, result)
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func printResultText(cmd *cobra.Command, result *properties.Result) {
	cmd.Printf("search type: %s   found: %d   cached: %t   verified: %t\n",
		result.Metadata.SearchType, result.Metadata.TotalFound,
		result.Metadata.FromCache, result.Verification.Valid)

	for i, p := range result.Results {
		cmd.Printf("\n%d. %s\n", i+1, p.Address.String())
		if p.ParcelID != "" {
			cmd.Printf("   parcel:    %s\n", p.ParcelID)
		}
		if p.Structure.YearBuilt != nil {
			cmd.Printf("   built:     %d\n", *p.Structure.YearBuilt)
		}
		if p.Structure.SquareFeet != nil {
			cmd.Printf("   sqft:      %d\n", *p.Structure.SquareFeet)
		}
		if p.Valuation.CurrentValue != nil {
			cmd.Printf("   value:     $%.0f\n", *p.Valuation.CurrentValue)
		}
		if p.Listing.PriceMax != nil {
			cmd.Printf("   listed at: $%.0f\n", *p.Listing.PriceMax)
		}
		sources := make([]string, 0, len(p.Sources))
		for _, s := range p.Sources {
			sources = append(sources, string(s))
		}
		cmd.Printf("   sources:   %s\n", strings.Join(sources, ", "))
	}

	if len(result.Verification.Reasons) > 0 {
		cmd.Printf("\nverification notes: %s\n", strings.Join(result.Verification.Reasons, "; "))
	}
}

// NewServeCommand creates the serve command.
func (a *App) NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution REST API",
		Long: `Start the parcelscope REST API server.

Endpoints:
  POST /api/v1/properties/query   structured or free-text resolution
  GET  /api/v1/properties/search  legacy single-parameter search (?q=)
  GET  /api/v1/stats              runtime and cache statistics
  POST /api/v1/cache/flush        drop all cached resolutions
  GET  /health                    liveness probe`,
		Example: `  # Start on default port 8080
  parcelscope serve

  # Custom port with CORS for a web frontend
  parcelscope serve --port 3000 --cors`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "Server port")
	cmd.Flags().String("host", "localhost", "Bind address")
	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")
	cmd.Flags().Int("rate-limit", 100, "Requests per minute per IP (0 to disable)")
	cmd.Flags().String("prefix", "/api/v1", "API path prefix")
	cmd.Flags().Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", 120*time.Second, "HTTP idle timeout")

	return cmd
}

// runServe builds the engine, wires the HTTP server, and blocks until the
// command context is cancelled or the listener fails.
func (a *App) runServe(cmd *cobra.Command) error {
	cfg := server.DefaultConfig()
	cfg.Port, _ = cmd.Flags().GetInt("port")
	cfg.Host, _ = cmd.Flags().GetString("host")
	cfg.CORSEnabled, _ = cmd.Flags().GetBool("cors")
	cfg.CORSOrigins, _ = cmd.Flags().GetStringSlice("cors-origins")
	cfg.RateLimit, _ = cmd.Flags().GetInt("rate-limit")
	cfg.PathPrefix, _ = cmd.Flags().GetString("prefix")
	cfg.ReadTimeout, _ = cmd.Flags().GetDuration("read-timeout")
	cfg.WriteTimeout, _ = cmd.Flags().GetDuration("write-timeout")
	cfg.IdleTimeout, _ = cmd.Flags().GetDuration("idle-timeout")

	// Config file and environment can override flag defaults
	if a.config.Host != "" {
		cfg.Host = a.config.Host
	}
	if a.config.Port != 0 {
		cfg.Port = a.config.Port
	}

	client, err := a.Client()
	if err != nil {
		return err
	}

	srv := server.New(client, client.Cache(), cfg, a.logger)
	httpServer := &http.Server{
		Addr:         srv.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", httpServer.Addr).
			Str("prefix", cfg.PathPrefix).
			Msg("Server starting")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-cmd.Context().Done():
		a.logger.Info().Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// NewProvidersCommand creates the providers command.
func (a *App) NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show the configured provider registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := providers.Load(a.config.ProviderConfig)
			if err != nil {
				return err
			}

			if a.config.Output == "text" {
				for id, p := range cfg.Providers {
					cmd.Printf("%-10s %-10s %s\n", id, p.Auth.Type, p.BaseURL)
				}
				return nil
			}

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("parcelscope %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit: %s\n", a.commit)
				cmd.Printf("  built:  %s\n", a.date)
			}
		},
	}
}
