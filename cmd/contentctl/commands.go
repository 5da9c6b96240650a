package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/config"
	"github.com/tendant/content-dimension/pkg/dimension/search"
)

// loadServices builds the services from the environment and the global flags
func loadServices(cmd *cobra.Command) (*config.Services, *config.ServerConfig, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")
	formsDir, _ := flags.GetString("forms")
	formsPattern, _ := flags.GetString("forms-pattern")
	fixtures, _ := flags.GetString("fixtures")
	verbose, _ := flags.GetBool("verbose")

	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	opts = append(opts, config.WithEnv())
	if formsDir != "" {
		opts = append(opts, config.WithForms(formsDir, formsPattern))
	}
	if fixtures != "" {
		opts = append(opts, config.WithFixtures(fixtures))
	}
	if verbose {
		opts = append(opts, config.WithDebug(true))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	services, err := cfg.BuildServices(cmd.Context(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build services: %w", err)
	}
	return services, cfg, nil
}

func attributesFromFlags(cmd *cobra.Command) (dimension.Attributes, error) {
	locale, _ := cmd.Flags().GetString("locale")
	stage, _ := cmd.Flags().GetString("stage")
	attrs := dimension.Attributes{Locale: locale, Stage: dimension.Stage(stage)}
	if attrs.Stage != "" && !attrs.Stage.Valid() {
		return attrs, fmt.Errorf("invalid stage %q", stage)
	}
	return attrs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <resource-key> <resource-id>",
		Short: "Aggregate and resolve one resource",
		Long:  `Merge the dimensions matching --locale and --stage and print the resolved content, view and extensions.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := attributesFromFlags(cmd)
			if err != nil {
				return err
			}

			services, _, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			dc, err := services.Aggregator.Aggregate(cmd.Context(), dimension.NewReference(args[0], args[1]), attrs)
			if err != nil {
				return err
			}
			resolved, err := services.Resolver.Resolve(cmd.Context(), dc)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), resolved)
		},
	}

	cmd.Flags().StringP("locale", "l", "", "locale to resolve")
	cmd.Flags().StringP("stage", "s", string(dimension.StageDraft), "stage to resolve (draft or live)")

	return cmd
}

func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <resource-key> <resource-id>",
		Short: "Write the search documents of a resource",
		Long:  `Resolve the resource and store it in every configured search index matching its key and stage.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := attributesFromFlags(cmd)
			if err != nil {
				return err
			}

			services, _, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			dc, err := services.Indexer.Index(cmd.Context(), dimension.NewReference(args[0], args[1]), attrs)
			if err != nil {
				return err
			}

			indexes := services.Indexer.Indexes(dc.ResourceKey)
			names := make([]string, 0, len(indexes))
			for _, def := range indexes {
				if def.Stage == dc.Stage {
					names = append(names, def.Name)
				}
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"document_id": search.DocumentID(dc.ResourceKey, dc.ResourceID, dc.Locale),
				"indexes":     names,
			})
		},
	}

	cmd.Flags().StringP("locale", "l", "", "locale to index")
	cmd.Flags().StringP("stage", "s", string(dimension.StageDraft), "stage to index (draft or live)")

	return cmd
}

func NewFormsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the registered form keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, _, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			for _, key := range services.Forms.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the supported environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.EnvUsage())
			return err
		},
	}
}
