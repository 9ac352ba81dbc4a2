package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dshills/acra/internal/config"
	"github.com/dshills/acra/internal/providers"
	"github.com/dshills/acra/internal/review"
	"github.com/spf13/cobra"
)

const doctorTimeout = 30 * time.Second

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect review providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers, their models and credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		return listProviders(cmd.OutOrStdout(), cfg)
	},
}

func listProviders(w io.Writer, cfg config.Config) error {
	order := map[string]string{providers.Canonical(cfg.Provider): "primary"}
	for _, fb := range cfg.Fallbacks {
		if name := providers.Canonical(fb); order[name] == "" {
			order[name] = "fallback"
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tCREDENTIAL\tROLE")
	for _, name := range providers.Names() {
		pc := cfg.ProviderConfig(name)
		model := pc.Model
		if model == "" {
			model = providers.DefaultModels[name]
		}
		role := order[name]
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, model, credentialStatus(name, pc), role)
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", review.RulesProviderName, "-", "not required", "last resort")
	return tw.Flush()
}

func credentialStatus(name string, pc config.ProviderConfig) string {
	switch {
	case name == "ollama":
		return "not required"
	case pc.APIKey != "":
		return "set"
	default:
		return "missing"
	}
}

var providersDoctorCmd = &cobra.Command{
	Use:   "doctor [provider...]",
	Short: "Check that providers are configured and responding",
	Long:  "Send a short request to each provider. Defaults to the configured primary and fallbacks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = append([]string{cfg.Provider}, cfg.Fallbacks...)
		}
		for _, name := range names {
			if providers.Canonical(name) == "" {
				return fmt.Errorf("unknown provider: %s", name)
			}
		}

		for _, name := range names {
			if code := checkProvider(cmd.OutOrStdout(), cfg, name); code > exitCode {
				exitCode = code
			}
		}
		return nil
	},
}

// checkProvider pings one provider and returns the exit code its result
// warrants.
func checkProvider(w io.Writer, cfg config.Config, name string) int {
	name = providers.Canonical(name)
	fmt.Fprintf(w, "Checking %s...\n", name)

	pc := cfg.ProviderConfig(name)
	p, err := providers.New(name, providers.Settings{
		APIKey:  pc.APIKey,
		Model:   pc.Model,
		BaseURL: pc.BaseURL,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		if errors.Is(err, providers.ErrMissingCredential) {
			return ExitAuthError
		}
		return ExitRuntimeError
	}

	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	_, err = p.Review(ctx, providers.ReviewRequest{
		SystemPrompt: "Respond with exactly: ok",
		UserPrompt:   "ping",
		MaxTokens:    10,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %s: %v\n", name, err)
		if providers.IsAuthError(err) {
			return ExitAuthError
		}
		return ExitRuntimeError
	}

	fmt.Fprintf(w, "OK: %s is configured and responding\n", name)
	return ExitSuccess
}

func init() {
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersDoctorCmd)
}
