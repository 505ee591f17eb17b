package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients/acl"
	"github.com/jsamuelsen/jsonapi-gateway/internal/app"
)

func (a *App) newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Fetch and decode a document from the upstream",
		Long: `Fetch requests path from the configured upstream JSON:API service and prints
the normalized document. The upstream comes from the gateway configuration for
--profile unless --base-url is given.

Exit status is 2 for a classified protocol failure, 3 for a malformed body and
4 when the upstream could not be reached.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runFetch,
	}

	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "upstream base URL (overrides configuration)")
	cmd.Flags().BoolVar(&a.report, "report", false, "include decode statistics")

	return cmd
}

func (a *App) runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(a.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	baseURL := cfg.Upstream.BaseURL
	if a.baseURL != "" {
		baseURL = a.baseURL
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:         baseURL,
		ServiceName:     cfg.Upstream.Name,
		Timeout:         cfg.Client.Timeout,
		MaxResponseSize: cfg.Client.MaxResponseSize,
		Circuit:         cfg.Client.CircuitBreaker,
		Logger:          a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	svc := app.NewDocumentService(app.DocumentServiceConfig{
		Client: acl.NewResourceClient(acl.ResourceClientConfig{
			Client: httpClient,
			Logger: a.logger,
		}),
		Logger: a.logger,
	})

	a.logger.Debug("fetching document", slog.String("base_url", baseURL), slog.String("path", args[0]))

	doc, report, err := svc.FetchDocument(cmd.Context(), args[0])
	if err != nil {
		return withExitCode(err)
	}

	out := newDocumentOutput(doc, nil)
	if a.report {
		out.Report = &report
	}

	return write(a.stdout, a.output, out)
}
