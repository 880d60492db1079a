package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/empenoso/comment-sentiment-analyzer/internal/config"
	"github.com/empenoso/comment-sentiment-analyzer/internal/oracle"
	"github.com/empenoso/comment-sentiment-analyzer/internal/pipeline"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	envFile    string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted.")
			os.Exit(0)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sentiment",
	Short:   "Find positive comments in JSON dumps",
	Long:    "Sentiment classifies scraped reader comments with a pretrained model and writes a flat-text report of the positive ones per source directory.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path, envFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "config.env", "Path to KEY=value override file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sentiment", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to ./config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "config.yaml"
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure input directories, the model, and the threshold.")
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full batch: discover -> classify -> aggregate -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		printConfig(cfg)

		provider := createProvider(cfg)
		if provider == nil {
			return fmt.Errorf("no classification backend available")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := pipeline.New(cfg, provider).Run(ctx)
		printSummary(result)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return context.Canceled
			}
			return err
		}
		return nil
	},
}

// --- classify command ---

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a single text and print the label and scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := createProvider(cfg)
		if provider == nil {
			return fmt.Errorf("no classification backend available")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		device, err := provider.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading model: %w", err)
		}
		log.Printf("Model ready (device: %s)", device)

		verdict, err := provider.Classify(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Label: %s\n", verdict.Label)
		for i, label := range cfg.Labels.Order {
			if i < len(verdict.Scores) {
				fmt.Printf("  %s: %.4f\n", label, verdict.Scores[i])
			}
		}
		return nil
	},
}

func createProvider(cfg *config.Config) oracle.Provider {
	return oracle.CreateProvider(
		cfg.Inference.URL,
		cfg.Model.Device,
		cfg.Inference.OllamaModel,
		cfg.Inference.OllamaURL,
		oracle.NewLabelSet(cfg.Labels.Order),
		cfg.Model.MaxTokenLength,
	)
}

func printConfig(cfg *config.Config) {
	fmt.Println("Configuration:")
	fmt.Printf("  Model:              %s\n", cfg.Model.Name)
	fmt.Printf("  Device:             %s\n", cfg.Model.Device)
	fmt.Printf("  Positive threshold: %g\n", cfg.Filter.PositiveThreshold)
	fmt.Printf("  Excluded authors:   %s\n", strings.Join(cfg.Filter.ExcludeAuthors, ", "))
	fmt.Printf("  Min length:         %d chars\n", cfg.Filter.MinCommentLength)
	fmt.Printf("  Input directories:  %s\n", strings.Join(cfg.InputDirs, ", "))
	fmt.Println()
}

func printSummary(r *pipeline.Result) {
	if r == nil {
		return
	}
	fmt.Println("\nSummary:")
	fmt.Printf("  Files processed:  %d\n", r.FilesProcessed)
	fmt.Printf("  Files skipped:    %d\n", r.FilesSkipped)
	fmt.Printf("  Comments checked: %d\n", r.CommentsSeen)
	fmt.Printf("  Positive found:   %d\n", r.Positive)
	if r.OracleErrors > 0 {
		fmt.Printf("  Classifier errors: %d\n", r.OracleErrors)
	}
	for _, path := range r.Reports {
		fmt.Printf("  Report: %s\n", path)
	}
	if r.Positive == 0 {
		fmt.Println("  No positive comments found. Try lowering POSITIVE_THRESHOLD.")
	}
}
