package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	contentideas "agent-stack/agents/content-ideas"
	"agent-stack/internal/models"
	"agent-stack/shared/config"
	"agent-stack/shared/scheduler"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var once, dryRun bool

	cmd := &cobra.Command{
		Use:           "content-ideas",
		Short:         "Generate satire and humor video ideas and email them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.Option
			if dryRun {
				// Deliver into the local outbox instead of a real mailbox
				opts = append(opts, config.WithEmailProvider(config.MailFile))
			}

			cfg, err := config.Load(opts...)
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			if err := scheduler.ValidateSchedule(cfg.Schedule); err != nil {
				log.Fatalf("Failed to validate schedule: %v", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			agent := contentideas.NewContentIdeasAgent(cfg)
			s := scheduler.New(cfg, agent)

			if once {
				fmt.Println("Running once...")
				if err := agent.Initialize(); err != nil {
					log.Fatalf("Failed to initialize agent: %v", err)
				}
				if err := s.RunOnce(ctx); err != nil {
					log.Printf("Failed to run: %v", err)
					return err
				}
				return nil
			}

			fmt.Println("Starting scheduler...")
			if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Scheduler failed: %v", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single time and exit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "write the email to the outbox directory instead of sending it")

	cmd.AddCommand(previewCmd())
	cmd.AddCommand(promptCmd())
	return cmd
}

// previewCmd renders a saved generator response without calling any service
func previewCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "preview [response-file|-]",
		Short: "Render a saved generator response as the email HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			var html string
			result, err := contentideas.ParseIdeas(raw)
			if err != nil {
				var failure *contentideas.ParseFailure
				if !errors.As(err, &failure) {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%v, rendering diagnostic email\n", failure)
				html, err = contentideas.RenderDiagnostic(raw, failure, time.Now())
				if err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "parsed %d ideas from %d blocks (%d dropped)\n",
					len(result.Ideas), result.Blocks, result.Dropped)
				html, err = contentideas.RenderEmail(&models.IdeaBatch{
					GeneratedAt: time.Now(),
					Requested:   count,
					Dropped:     result.Dropped,
					Ideas:       result.Ideas,
				})
				if err != nil {
					return err
				}
			}

			_, err = io.WriteString(cmd.OutOrStdout(), html)
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", contentideas.DefaultIdeaCount, "number of ideas that were requested")
	return cmd
}

func promptCmd() *cobra.Command {
	var count int
	var topics []string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the generation prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), contentideas.BuildPrompt(topics, count))
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", contentideas.DefaultIdeaCount, "number of ideas to request")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "trending topic (repeatable, defaults to the built-in set)")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
