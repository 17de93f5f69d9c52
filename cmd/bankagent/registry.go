package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/registry"
	configx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the registry tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := openSQLRegistry(cmd)
		if err != nil {
			return err
		}
		defer reg.Close()

		if err := reg.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info().Msg("registry schema is up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load clients and score bands into the registry",
	Long: `Loads the seed file named by REGISTRY_SEED_FILE (or --file), or the built-in
sample data. Rows that already exist are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cfg, err := openSQLRegistry(cmd)
		if err != nil {
			return err
		}
		defer reg.Close()

		if file, _ := cmd.Flags().GetString("file"); file != "" {
			cfg.SeedFile = file
		}
		seed, err := cfg.Seed()
		if err != nil {
			return err
		}
		if err := reg.Migrate(cmd.Context()); err != nil {
			return err
		}
		if err := reg.Seed(cmd.Context(), seed); err != nil {
			return err
		}
		log.Info().Int("clients", len(seed.Clients)).Int("bands", len(seed.Bands)).Msg("registry seeded")
		return nil
	},
}

func openSQLRegistry(cmd *cobra.Command) (*registry.SQLRegistry, registry.Config, error) {
	cfg, err := configx.New[registry.Config]("REGISTRY", configx.WithEnvFile(envFile(cmd)))
	if err != nil {
		return nil, registry.Config{}, err
	}
	if cfg.Driver == registry.DriverMemory {
		return nil, *cfg, fmt.Errorf("registry driver %q has nothing to migrate or seed", cfg.Driver)
	}
	reg, err := registry.OpenSQL(cmd.Context(), *cfg)
	if err != nil {
		return nil, *cfg, err
	}
	return reg, *cfg, nil
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)
	seedCmd.Flags().String("file", "", "YAML seed file (overrides REGISTRY_SEED_FILE)")
}
