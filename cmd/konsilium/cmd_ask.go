package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"konsilium/internal/query"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// askCmd sends one query and prints the answer
var askCmd = &cobra.Command{
	Use:   "ask [query...]",
	Short: "Send one query and print the generated answer",
	Long: `Sends a single query to the generation endpoint and prints the answer
to stdout. With no arguments the query is read from stdin.

Exit status is 1 if generation fails and 2 if the configuration is invalid.

Example:
  konsilium ask "схема лечения немелкоклеточного рака лёгкого"
  echo "побочные эффекты цисплатина" | konsilium ask`,
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read query from stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	gen := newGenerator(cfg)
	defer gen.CloseIdleConnections()

	f := query.NewForm()
	f.SetQuery(text)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Debug("Submitting query", zap.String("endpoint", gen.URL()), zap.Int("bytes", len(text)))
	if err := query.Submit(ctx, f, gen); err != nil {
		logger.Debug("Generation failed", zap.Error(err))
		return &exitError{code: exitGeneration, err: errors.New(f.Snapshot().ErrorMessage)}
	}

	fmt.Fprintln(cmd.OutOrStdout(), f.Snapshot().Response)
	return nil
}
