package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/wippyai/simbridge/config"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
)

func newDescribeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [callback...]",
		Short: "show the callbacks of a binding file and their signatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.config)
			if err != nil {
				return err
			}
			return describe(cmd.OutOrStdout(), opts.config, cfg, args)
		},
	}
}

func describe(w io.Writer, path string, cfg *config.File, ids []string) error {
	callbacks := cfg.Callbacks
	if len(ids) > 0 {
		callbacks = callbacks[:0:0]
		for _, id := range ids {
			c, ok := cfg.Lookup(id)
			if !ok {
				return errors.NotFound(errors.PhaseConfig, "callback", id)
			}
			callbacks = append(callbacks, c)
		}
	}

	fmt.Fprintf(w, "binding file: %s\n", path)
	fmt.Fprintf(w, "log level: %s\n", cfg.Level())
	fmt.Fprintf(w, "default callback: %s\n", cfg.Default().ID)

	for _, c := range callbacks {
		params, returns, err := c.Signatures()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s  %s  %s\n", c.ID, c.Backend, source(cfg, c))
		width := nameWidth(c)
		for i, s := range c.Inputs {
			fmt.Fprintf(w, "  in   %-*s  %s\n", width, s.Name, params[i])
		}
		for i, s := range c.Outputs {
			fmt.Fprintf(w, "  out  %-*s  %s\n", width, s.Name, returns[i])
		}
		fmt.Fprintf(w, "  input count %d, output capacity %d\n",
			transcoder.InputCount(params), transcoder.OutputCapacity(returns))
	}
	return nil
}

func source(cfg *config.File, c config.Callback) string {
	if c.Backend == config.BackendGo {
		return "native:" + c.Function()
	}
	return cfg.ScriptPath(c) + ":" + c.Function()
}

func nameWidth(c config.Callback) int {
	width := 0
	for _, s := range append(append([]config.Slot(nil), c.Inputs...), c.Outputs...) {
		width = max(width, len(s.Name))
	}
	return width
}
