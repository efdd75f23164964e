package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"codearh/internal/app"
	"codearh/internal/commands"
	"codearh/internal/server"
	"codearh/internal/setup"
	"codearh/internal/ui"
)

var (
	version   = "0.1.0"
	cfgFile   string
	dbPath    string
	logLevel  string
	importDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "codearh",
		Short: "Multi-agent AI coding assistant",
		Long: `codearh routes each request to a Generator, Tweaker or Debugger agent,
builds the prompt context from a virtual project and applies the model's
file and find/replace edits back to that project.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/codearh/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides storage.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&importDir, "import", "", "import a directory into the project before starting")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "export <dir>",
		Short: "Write the last project's files to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlash(cmd, "export", args...)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codearh version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if importDir != "" {
		n, err := rt.app.ImportDir(ctx, importDir)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d files from %s\n", n, importDir)
	}

	copyFn := clipboard.WriteAll
	if clipboard.Unsupported {
		copyFn = nil
	}
	return ui.Run(ctx, rt.app, rt.cfg.UI, copyFn)
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr != "" {
				rt.cfg.Server.Addr = addr
			}
			fmt.Printf("Listening on http://%s\n", rt.cfg.Server.Addr)
			return server.New(rt.app, rt.cfg.Server).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			before := len(rt.app.Messages())
			sendErr := rt.app.SendMessage(ctx, strings.Join(args, " "))
			msgs := rt.app.Messages()
			if before > len(msgs) {
				before = 0
			}
			out := cmd.OutOrStdout()
			for _, m := range msgs[before:] {
				if m.Role == app.RoleAssistant {
					fmt.Fprintln(out, m.Content)
				}
			}
			if status := rt.app.Status(); status != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), status)
			}
			return sendErr
		},
	}
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure API keys and local models",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			changed, err := setup.New(cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx, cfg)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
				return nil
			}
			path := configPath()
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), setup.NextSteps(path))
			return nil
		},
	}
}

// newAgentsCmd exposes the agent slash commands on the command line.
func newAgentsCmd() *cobra.Command {
	agentsCmd := &cobra.Command{
		Use:   "agents",
		Short: "List and configure agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlash(cmd, "agents")
		},
	}
	agentsCmd.AddCommand(&cobra.Command{
		Use:   "toggle <agent>",
		Short: "Enable or disable an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlash(cmd, "toggle", args...)
		},
	})
	agentsCmd.AddCommand(&cobra.Command{
		Use:   "model <agent> <model>",
		Short: "Bind an agent to a model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlash(cmd, "model", args...)
		},
	})
	agentsCmd.AddCommand(&cobra.Command{
		Use:   "instruct <agent> <file>",
		Short: "Attach a file as agent instructions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlash(cmd, "instruct", args...)
		},
	})
	agentsCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore agent defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlash(cmd, "reset-agents")
		},
	})
	return agentsCmd
}

func runSlash(cmd *cobra.Command, name string, args ...string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	h := commands.NewHandler(&commands.Env{App: rt.app})
	out, err := h.Execute(ctx, name, args)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
