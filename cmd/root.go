package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"

	"github.com/josephlewis42/msh/core/config"
	"github.com/josephlewis42/msh/core/fdio"
	"github.com/josephlewis42/msh/core/logger"
	"github.com/josephlewis42/msh/core/shell"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	command string

	exitCode int
)

// loadConfig loads the configuration, falling back to the defaults when the
// directory was never initialized.
func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config, using defaults: did you run init?")
		return config.Default(), nil
	}

	return configuration, err
}

// openEvents opens the event log if one is configured.
func openEvents(cfg *config.Configuration) (*logger.Logger, io.Closer, error) {
	fd, err := cfg.OpenAppLog()
	switch {
	case errors.Is(err, config.ErrNoAppLog):
		return logger.NewNopLogger(), io.NopCloser(nil), nil
	case err != nil:
		return nil, nil, err
	}
	return logger.NewJsonLinesLogRecorder(fd), fd, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msh",
	Short: "Minimal shell",
	Long:  `A minimal shell that runs pipelines of programs with redirections.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		events, closer, err := openEvents(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		streams := fdio.Std()
		sh, err := shell.New(cfg, streams, events.NewSession())
		if err != nil {
			return err
		}

		// Terminal interrupts are meant for the children, the shell keeps
		// going. Children get the default disposition back on exec.
		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt)
		defer signal.Stop(interrupts)
		go func() {
			for range interrupts {
			}
		}()

		ctx := context.Background()
		if cmd.Flags().Changed("command") {
			sh.RunCommand(ctx, command)
			sh.Builder.Wait()
			exitCode = sh.ExitCode()
			return nil
		}

		reader, err := shell.NewLineReader(cfg, streams)
		if err != nil {
			return err
		}
		defer reader.Close()
		sh.Reader = reader

		exitCode = sh.Run(ctx)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single line and exit with its status")
}
