package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dasmlab/tripglot/pkg/service"
)

var (
	serverAddr string
	timeout    time.Duration
	sourceLang string
	targetLang string
	textFile   string
	text       string
	level      string
)

var logger = logrus.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testclient",
		Short: "Exercise a tripglot server over gRPC",
		Long: `testclient calls the tripglot TranslationService over gRPC.

Commands:
  translate            Translate text from -text or -file
  batch                Translate each line of a file in one batch
  simplify             Simplify English text
  translate-simplify   Translate then simplify
  job                  Submit a batch job and poll it to completion
  languages            List supported languages
  providers            List providers and their availability`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:50051", "gRPC server address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall request timeout")

	root.AddCommand(
		newTranslateCmd(),
		newBatchCmd(),
		newSimplifyCmd(),
		newTranslateSimplifyCmd(),
		newJobCmd(),
		newLanguagesCmd(),
		newProvidersCmd(),
	)
	return root
}

func main() {
	logger.SetLevel(logrus.InfoLevel)
	if err := newRootCmd().Execute(); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func addTextFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&textFile, "file", "", "Path to text file")
	cmd.Flags().StringVar(&text, "text", "", "Text (if file not provided)")
}

func addLangFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sourceLang, "source", "auto", "Source language code, tag or name (auto to detect)")
	cmd.Flags().StringVar(&targetLang, "target", "fr", "Target language code, tag or name")
}

func readInput() (string, error) {
	if textFile != "" {
		data, err := os.ReadFile(textFile)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", textFile, err)
		}
		return string(data), nil
	}
	if text != "" {
		return text, nil
	}
	return "", fmt.Errorf("either --file or --text must be provided")
}

// withClient dials the server and runs fn with a bounded context.
func withClient(fn func(ctx context.Context, client *service.TranslationClient) error) error {
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return fn(ctx, service.NewTranslationClient(conn))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate text",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput()
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"server":      serverAddr,
				"source_lang": sourceLang,
				"target_lang": targetLang,
				"text_length": len(input),
			}).Info("Sending translate request")

			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				start := time.Now()
				resp, err := client.Translate(ctx, service.TranslateRequest{Text: input, Source: sourceLang, Target: targetLang})
				if err != nil {
					return fmt.Errorf("translate: %w", err)
				}
				logger.WithFields(logrus.Fields{
					"provider":    resp.Provider,
					"degraded":    resp.Degraded,
					"cached":      resp.Cached,
					"chunks":      resp.Chunks,
					"duration_ms": time.Since(start).Milliseconds(),
				}).Info("Translation received")
				fmt.Println(resp.Text)
				return nil
			})
		},
	}
	addTextFlags(cmd)
	addLangFlags(cmd)
	return cmd
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Translate each non-empty line in one batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput()
			if err != nil {
				return err
			}
			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				resp, err := client.TranslateBatch(ctx, service.BatchRequest{
					Texts:  nonEmptyLines(input),
					Source: sourceLang,
					Target: targetLang,
				})
				if err != nil {
					return fmt.Errorf("translate batch: %w", err)
				}
				for _, r := range resp.Results {
					fmt.Println(r.Text)
				}
				return nil
			})
		},
	}
	addTextFlags(cmd)
	addLangFlags(cmd)
	return cmd
}

func newSimplifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simplify",
		Short: "Simplify English text",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput()
			if err != nil {
				return err
			}
			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				resp, err := client.Simplify(ctx, service.SimplifyRequest{Text: input, Level: level})
				if err != nil {
					return fmt.Errorf("simplify: %w", err)
				}
				return printJSON(resp)
			})
		},
	}
	addTextFlags(cmd)
	cmd.Flags().StringVar(&level, "level", "simple", "Complexity level: child, simple or standard")
	return cmd
}

func newTranslateSimplifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate-simplify",
		Short: "Translate text then simplify the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput()
			if err != nil {
				return err
			}
			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				resp, err := client.TranslateAndSimplify(ctx, service.SimplifyRequest{
					Text:   input,
					Source: sourceLang,
					Target: targetLang,
					Level:  level,
				})
				if err != nil {
					return fmt.Errorf("translate and simplify: %w", err)
				}
				return printJSON(resp)
			})
		},
	}
	addTextFlags(cmd)
	addLangFlags(cmd)
	cmd.Flags().StringVar(&level, "level", "simple", "Complexity level: child, simple or standard")
	return cmd
}

func newJobCmd() *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Submit a batch job (one text per line) and wait for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput()
			if err != nil {
				return err
			}
			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				jobID, err := client.SubmitJob(ctx, service.JobRequest{
					Texts:  nonEmptyLines(input),
					Source: sourceLang,
					Target: targetLang,
				})
				if err != nil {
					return fmt.Errorf("submit job: %w", err)
				}
				logger.WithField("job_id", jobID).Info("Job submitted")

				ticker := time.NewTicker(poll)
				defer ticker.Stop()
				for {
					snap, err := client.GetJob(ctx, jobID)
					if err != nil {
						return fmt.Errorf("get job: %w", err)
					}
					logger.WithFields(logrus.Fields{
						"status":   snap.Status,
						"progress": snap.ProgressPercent,
					}).Info(snap.ProgressMessage)

					switch snap.Status {
					case service.JobStatusCompleted:
						for _, r := range snap.Results {
							fmt.Println(r.Text)
						}
						return nil
					case service.JobStatusFailed:
						return fmt.Errorf("job %s failed: %s", jobID, snap.Error)
					}

					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-ticker.C:
					}
				}
			})
		},
	}
	addTextFlags(cmd)
	addLangFlags(cmd)
	cmd.Flags().DurationVar(&poll, "poll", time.Second, "Status poll interval")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				langs, err := client.ListLanguages(ctx)
				if err != nil {
					return fmt.Errorf("list languages: %w", err)
				}
				for _, l := range langs {
					fmt.Printf("%-4s %-8s %s\n", l.Code, l.Speech, l.Name)
				}
				return nil
			})
		},
	}
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers in attempt order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *service.TranslationClient) error {
				providers, err := client.ListProviders(ctx)
				if err != nil {
					return fmt.Errorf("list providers: %w", err)
				}
				for i, p := range providers {
					state := "unavailable"
					if p.Available {
						state = "available"
					}
					if len(p.Languages) > 0 {
					state = fmt.Sprintf("%s (%d languages)", state, len(p.Languages))
				}
				fmt.Printf("%d. %-16s %s\n", i+1, p.Name, state)
				}
				return nil
			})
		},
	}
}
