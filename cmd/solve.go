// File: cmd/solve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/observability"
)

// solveResult is what solve prints.
type solveResult struct {
	schemas.Outcome
	Error string `json:"error,omitempty"`
}

func newSolveCmd() *cobra.Command {
	var (
		quizURL  string
		email    string
		secret   string
		budget   time.Duration
		headless bool
	)

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solves one quiz chain in the foreground and prints the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if budget > 0 {
				cfg.SetSessionTimeBudget(budget)
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if secret == "" {
				secret = cfg.Server().Secret
			}

			req := schemas.QuizRequest{
				Email:  strings.TrimSpace(email),
				Secret: secret,
				URL:    strings.TrimSpace(quizURL),
			}
			if req.URL == "" || req.Email == "" || req.Secret == "" {
				return errors.New("--url, --email and a secret (--secret or QUIZWALK_SECRET) are required")
			}

			comps, err := buildComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				defer cancel()
				if err := comps.Close(closeCtx); err != nil {
					logger.Warn("Error releasing components", zap.Error(err))
				}
			}()

			out := comps.runner.Run(ctx, req)
			res := solveResult{Outcome: out}
			if out.Err != nil {
				res.Error = out.Err.Error()
			}
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("encode outcome: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if out.Reason == schemas.ReasonCanceled {
				return context.Canceled
			}
			return nil
		},
	}

	solveCmd.Flags().StringVar(&quizURL, "url", "", "first quiz page")
	solveCmd.Flags().StringVar(&email, "email", "", "email sent with every answer")
	solveCmd.Flags().StringVar(&secret, "secret", "", "secret sent with every answer (default QUIZWALK_SECRET)")
	solveCmd.Flags().DurationVar(&budget, "budget", 0, "session time budget (overrides session.time_budget)")
	solveCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	return solveCmd
}
