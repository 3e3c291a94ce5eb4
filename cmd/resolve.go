package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// resolveInput is a snapshot of a work queue as the app sends it. Role, when
// set, takes precedence over the explicit viewer capabilities.
type resolveInput struct {
	ProjectID string                   `yaml:"projectId"`
	Role      types.MemberRole         `yaml:"role"`
	Viewer    types.ViewerCapabilities `yaml:"viewer"`
	Bundles   []types.ActionBundle     `yaml:"bundles"`
}

func ResolveCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Resolve CTAs and routes for a work queue snapshot",
		Long: `Reads a YAML or JSON work queue snapshot and prints the call-to-action labels,
disabled reasons and routes each bundle resolves to for the given viewer.
No database is needed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolutions, err := resolveFile(args[0])
			if err != nil {
				return err
			}
			return printResolutions(cmd.OutOrStdout(), resolutions, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")

	return cmd
}

func resolveFile(path string) ([]cta.Resolution, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var in resolveInput
	if err := yaml.Unmarshal(b, &in); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	viewer := in.Viewer
	if in.Role != "" {
		viewer = types.CapabilitiesForRole(in.Role)
	}

	return cta.ResolveAll(in.Bundles, viewer, in.ProjectID), nil
}

func printResolutions(w io.Writer, resolutions []cta.Resolution, format string) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(resolutions, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal resolutions: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for _, r := range resolutions {
		fmt.Fprintln(w, bold(r.BundleID))
		line := "  " + green(r.Primary)
		if r.Secondary != "" {
			line += " | " + r.Secondary
		}
		if r.DisabledReason != "" {
			line += " " + red("("+r.DisabledReason+")")
		}
		fmt.Fprintln(w, line)
		fmt.Fprintln(w, "  "+faint(r.Route))
	}
	return nil
}
