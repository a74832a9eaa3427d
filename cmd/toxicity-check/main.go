package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/di"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the check
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, service *core.ModerationService) error {
	defer logger.Sync()

	text, err := readInput(flags, logger)
	if err != nil {
		return err
	}

	cfg := service.Config()

	// Print input summary
	fmt.Printf("\n=== Input ===\n")
	fmt.Printf("Characters: %d\n", utf8.RuneCountInString(text))
	fmt.Printf("Mode: %s\n", cfg.Mode)
	fmt.Printf("Toxicity threshold: %.2f\n", cfg.ToxicityThreshold)

	startTime := time.Now()
	result := service.Analyze(context.Background(), text)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Acceptable: %t\n", result.IsAcceptable)
	fmt.Printf("Level: %s\n", result.Level)
	fmt.Printf("Severity score: %.4f\n", result.SeverityScore)
	if primary := result.PrimaryIssue(); primary != nil {
		fmt.Printf("Primary issue: %s (%.4f via %s)\n", primary.Type, primary.Score, primary.Source)
	}
	if len(result.Issues) > 0 {
		fmt.Printf("Issues:\n")
		for _, issue := range result.Issues {
			fmt.Printf("  - %s: %.4f (%s)\n", issue.Type, issue.Score, issue.Source)
		}
	}
	fmt.Printf("Layers used: %s\n", layerList(result.LayersUsed))
	fmt.Printf("Message: %s\n", result.UserMessage)
	fmt.Printf("Processing time: %v\n", duration)

	return nil
}

// readInput resolves the text to moderate from -text, -file or stdin.
func readInput(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.Text != "" {
		return flags.Text, nil
	}

	if flags.InputFile != "" {
		data, err := os.ReadFile(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		logger.Info("Read text from file", zap.String("file", flags.InputFile))
		return string(data), nil
	}

	logger.Info("Reading text from stdin")
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func layerList(layers []core.Layer) string {
	if len(layers) == 0 {
		return "none"
	}
	names := make([]string, len(layers))
	for i, layer := range layers {
		names[i] = string(layer)
	}
	return strings.Join(names, ", ")
}
