package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/britney/internal/retry"
)

// CheckCommand returns the check command
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Make sure the issue model exists, deriving it from a base model if needed",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retry transient runtime failures `N` times",
				Value: 0,
			},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	a, err := setup(c, "check")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := a.runContext()
	defer cancel()

	result := retry.Do(ctx, retry.RuntimeConfig(c.Int("retries")), func(ctx context.Context) error {
		return a.provisioner.EnsureReady(ctx)
	}, a.runLog)
	if !result.Success {
		a.runLog.LogError("check", result.LastError)
		return result.LastError
	}

	fmt.Fprintf(c.App.Writer, "Model %s is ready\n", a.config.Ollama.Target)
	return nil
}
