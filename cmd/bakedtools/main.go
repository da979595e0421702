package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bakedtools/pkg/api"
	"bakedtools/pkg/config"
	"bakedtools/pkg/workflow"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "bakedtools",
	Short:         "Baked Tools notes workflow for the review spreadsheet",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the workflow is",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := loadTools(cmd.Context())
		if err != nil {
			return err
		}
		status, err := tools.Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "spreadsheet %s: %s (workflow_state=%d, notes_sent=%t)\n",
			status.SpreadsheetID, status.Phase, status.Stage, status.Sent)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "bakedtools.toml", "Path to the config file")

	runs := map[string]func(*api.Tools, context.Context) (api.Notice, error){
		"match":   (*api.Tools).MatchClientNames,
		"prepare": (*api.Tools).PrepareNotes,
		"send":    (*api.Tools).SendNotes,
		"reset":   (*api.Tools).ResetWorkflow,
	}
	for _, item := range api.Menu {
		rootCmd.AddCommand(menuCommand(item, runs[item.Command]))
	}
	rootCmd.AddCommand(statusCmd)
}

func menuCommand(item api.MenuItem, run func(*api.Tools, context.Context) (api.Notice, error)) *cobra.Command {
	return &cobra.Command{
		Use:   item.Command,
		Short: item.Label,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := loadTools(cmd.Context())
			if err != nil {
				return err
			}
			notice, err := run(tools, cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", notice.Title, notice.Message)

			var gate *workflow.GateError
			if errors.As(err, &gate) {
				// Already shown to the user; a refusal is not a crash.
				os.Exit(2)
			}
			return err
		},
	}
}

func loadTools(ctx context.Context) (*api.Tools, error) {
	cfg, err := config.New(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configFile, err)
	}
	return api.NewToolsFromConfig(ctx, cfg)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
