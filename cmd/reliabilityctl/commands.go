package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

const maxPayloadBytes = 1 << 20

func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSignWebhookCmd() *cobra.Command {
	var (
		secret string
		file   string
		at     int64
	)

	cmd := &cobra.Command{
		Use:   "sign-webhook",
		Short: "Print a Stripe-Signature header for a payload",
		Long:  `Signs a JSON event body the way Stripe does, for replaying events against a local server.`,
		Example: `  reliabilityctl sign-webhook --file event.json
  cat event.json | STRIPE_WEBHOOK_SECRET=whsec_x reliabilityctl sign-webhook`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("STRIPE_WEBHOOK_SECRET")
			}
			if secret == "" {
				return errors.New("a webhook secret is required (--secret or STRIPE_WEBHOOK_SECRET)")
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			payload, err := io.ReadAll(io.LimitReader(in, maxPayloadBytes))
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			if len(payload) == 0 {
				return errors.New("payload is empty")
			}

			ts := time.Now()
			if at > 0 {
				ts = time.Unix(at, 0)
			}
			signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
				Payload:   payload,
				Secret:    secret,
				Timestamp: ts,
				Scheme:    "v1",
			})
			fmt.Fprintln(cmd.OutOrStdout(), signed.Header)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "webhook signing secret")
	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file (default stdin)")
	cmd.Flags().Int64Var(&at, "timestamp", 0, "unix timestamp to sign with (default now)")
	return cmd
}

func newGrantCmd() *cobra.Command {
	var (
		email string
		plan  string
		until string
	)

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Set a user's plan outside the billing flow",
		Example: `  reliabilityctl grant --email user@example.com --plan premium --until 2027-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var periodEnd *time.Time
			if until != "" {
				t, err := time.Parse("2006-01-02", until)
				if err != nil {
					return fmt.Errorf("--until must be YYYY-MM-DD: %w", err)
				}
				periodEnd = &t
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			entitlements := services.NewEntitlementService(db, services.NewAuthService(db, cfg), nil)
			rec, err := entitlements.Grant(cmd.Context(), email, plan, periodEnd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:     %s\n", rec.UserID)
			fmt.Fprintf(out, "plan:     %s\n", rec.Plan)
			fmt.Fprintf(out, "status:   %s\n", rec.Status)
			fmt.Fprintf(out, "expires:  %s\n", formatExpiry(rec.PeriodEnd))
			fmt.Fprintf(out, "entitled: %t\n", rec.IsEntitled(time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&plan, "plan", "premium", "basic, premium or professional")
	cmd.Flags().StringVar(&until, "until", "", "period end date (default: no expiry)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		token  string
		userID string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show the entitlement decision for an access token or user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			var principal services.Principal
			switch {
			case token != "":
				principal.AccessToken = token
			case userID != "":
				id, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("--user: %w", err)
				}
				principal.UserID = id
			default:
				return errors.New("one of --token or --user is required")
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			entitlements := services.NewEntitlementService(db, services.NewAuthService(db, cfg), nil)
			decision, err := entitlements.Check(cmd.Context(), principal)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entitled: %t\n", decision.IsEntitled)
			if decision.Record == nil {
				fmt.Fprintln(out, "plan:     none")
				return nil
			}
			fmt.Fprintf(out, "plan:     %s\n", decision.Record.Plan)
			fmt.Fprintf(out, "status:   %s\n", decision.Record.Status)
			fmt.Fprintf(out, "expires:  %s\n", formatExpiry(decision.Record.PeriodEnd))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "opaque access token")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	return cmd
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
