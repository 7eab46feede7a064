// Package cmd holds the patient-pulse command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/patient-pulse/config"
)

// options is shared by all subcommands and filled in before they run.
type options struct {
	cfgFile  string
	logLevel string
	logJSON  bool

	conf *cfg.Root
	log  *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "patient-pulse",
		Short:         "Replay recorded patient calls with entities and emotions in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd.ErrOrStderr())
		},
	}
	f := root.PersistentFlags()
	f.StringVarP(&o.cfgFile, "config", "c", "", "config file (default config/$CONFIG_ENV/config.yaml, then config.yaml)")
	f.StringVar(&o.logLevel, "log-level", "", "debug|info|warn|error (overrides pipeline.log_level)")
	f.BoolVar(&o.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(newServeCmd(o), newPlayCmd(o), newReplayCmd(o), newDemosCmd(o))
	return root
}

func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		os.Exit(1)
	}
}

func (o *options) setup(stderr io.Writer) error {
	envErr := godotenv.Load()

	conf, err := cfg.Load(o.cfgFile)
	if err != nil {
		return err
	}
	level := conf.Pipeline.LogLvl
	if o.logLevel != "" {
		level = o.logLevel
	}
	log, err := newLogger(level, o.logJSON, stderr)
	if err != nil {
		return err
	}
	o.conf, o.log = conf, log

	if envErr != nil {
		log.Debug("no .env file found, using process environment")
	}
	log.WithFields(logrus.Fields{
		"config":  conf.Source,
		"version": conf.Pipeline.Version,
	}).Debug("configuration loaded")
	return nil
}

func newLogger(level string, asJSON bool, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	if asJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
