package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/kubetui/kubetui/internal/ui"
)

// version is stamped at release time via -ldflags; left as "dev" for
// local builds.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts ui.Options

	cmd := &cobra.Command{
		Use:           "kubetui",
		Short:         "Terminal dashboard for watching Kubernetes workloads",
		Long:          "kubetui is a terminal dashboard for watching pods, config, network resources, events and container logs across a cluster in real time.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Kubeconfig, "kubeconfig", "", "path to the kubeconfig file (defaults to $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().StringVar(&opts.Context, "context", "", "kubeconfig context to start in (defaults to the current context)")
	cmd.Flags().BoolVar(&opts.ReadOnly, "read-only", false, "disable mutating operations")

	return cmd
}

func run(opts ui.Options) error {
	klog.InitFlags(nil)

	m := ui.New(opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("kubetui: %w", err)
	}
	return nil
}
