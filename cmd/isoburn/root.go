package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"isoburn/internal/command"
	"isoburn/internal/config"
	"isoburn/internal/deps"
	"isoburn/internal/logger"
	"isoburn/internal/privilege"
	"isoburn/internal/prompt"
	"isoburn/internal/report"
	"isoburn/internal/writer"
)

// cli carries what the persistent pre-run resolves for the subcommands.
type cli struct {
	cfg    config.Config
	runner command.Runner
	guard  writer.Guard
	// lookPath finds the external tools; exec.LookPath outside tests.
	lookPath func(string) (string, error)
	// toolErrorsShown is set once a console sink is attached; it prints
	// failing tool output itself.
	toolErrorsShown bool
	stdout, stderr  io.Writer
}

func newCLI(runner command.Runner) *cli {
	return &cli{runner: runner, guard: privilege.NewGuard(), lookPath: exec.LookPath}
}

func (c *cli) checker() *deps.Checker {
	return deps.NewChecker(c.runner).WithLookPath(c.lookPath)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "isoburn <image> <device>",
		Short: "Create bootable USB install media from an ISO image",
		Long: `Formats a partition as FAT32 and copies the contents of an ISO image
onto it. Everything on the partition is destroyed.

Example:
  sudo isoburn ~/Downloads/distro.iso /dev/sdb1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			logger.Configure(cfg.LogLevel)
			cmd.SetContext(log.Logger.WithContext(cmd.Context()))
			return nil
		},
		RunE: c.write,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(c.newDevicesCmd(), c.newCheckCmd())
	return root
}

func (c *cli) write(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := c.guard.EnsureElevated(); err != nil {
		return err
	}

	var sink report.Sink = report.Nop{}
	if !c.cfg.Silent {
		sink = report.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
		c.toolErrorsShown = true
	}

	warnings, err := c.checker().Check(ctx)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Ctx(ctx).Warn().Msg(w)
		sink.Logf("%s", w)
	}

	mw := writer.New(writer.Deps{
		Runner:   c.runner,
		Sink:     sink,
		Guard:    c.guard,
		Prompter: prompt.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout()),
	})
	return mw.Run(ctx, writer.Request{
		Image:       args[0],
		Device:      args[1],
		ImageMount:  c.cfg.ImageMount,
		TargetMount: c.cfg.DeviceMount,
		Silent:      c.cfg.Silent,
	})
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string) int {
	return newCLI(command.NewExecRunner()).execute(ctx, args)
}

func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	if c.stdout != nil {
		root.SetOut(c.stdout)
	}
	if c.stderr != nil {
		root.SetErr(c.stderr)
	}
	err := root.ExecuteContext(ctx)
	return reportError(err, c.toolErrorsShown, root.OutOrStdout(), root.ErrOrStderr())
}

// reportError prints err where the user expects it and maps it to an exit
// status. Tool output goes to stderr unless a console sink already printed it.
func reportError(err error, toolErrorsShown bool, stdout, stderr io.Writer) int {
	code := writer.ExitCode(err)
	if code == 0 {
		return 0
	}
	if writer.IsToolFailure(err) {
		if !toolErrorsShown {
			fmt.Fprintln(stderr, err.Error())
		}
		return code
	}
	fmt.Fprintln(stdout, "Error: "+err.Error())
	return code
}
