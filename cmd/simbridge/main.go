package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/config"
	"github.com/wippyai/simbridge/engine"
	"github.com/wippyai/simbridge/host"
	"github.com/wippyai/simbridge/script"
	"go.uber.org/zap"
)

type options struct {
	config  string
	logFile string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "simbridge",
		Short:         "run simulation callbacks outside the simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				setLoggers(l)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.config, "config", "c", defaultConfig(), "binding file (json or yaml)")
	root.PersistentFlags().StringVar(&opts.logFile, "log", "", "log file (default from the binding file)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newDescribeCmd(opts),
		newRunCmd(opts),
		newInteractiveCmd(opts),
		newVersionCmd(),
	)
	return root
}

// defaultConfig is the binding file next to the executable.
func defaultConfig() string {
	exe, err := os.Executable()
	if err != nil {
		return "simbridge.json"
	}
	return config.DefaultPath(exe)
}

func setLoggers(l *zap.Logger) {
	config.SetLogger(l)
	callback.SetLogger(l)
	script.SetLogger(l)
	engine.SetLogger(l)
	host.SetLogger(l)
}

func (o *options) newHost(extra ...host.Option) *host.Host {
	var hostOpts []host.Option
	if o.logFile != "" {
		hostOpts = append(hostOpts, host.WithLogFile(o.logFile))
	}
	return host.New(o.config, append(hostOpts, extra...)...)
}
