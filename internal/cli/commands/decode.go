package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/jsonapi-gateway/internal/app"
)

func (a *App) newDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode a JSON:API response body",
		Long: `Decode reads a response body from a file, or from stdin when the argument is
omitted or "-", classifies it by --status and prints the normalized document.

Exit status is 2 when the status is a classified protocol failure and 3 when
the body is not a JSON document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runDecode,
	}

	cmd.Flags().IntVar(&a.decodeStatus, "status", http.StatusOK, "HTTP status the body was received with")
	cmd.Flags().BoolVar(&a.report, "report", false, "include decode statistics")

	return cmd
}

func (a *App) runDecode(cmd *cobra.Command, args []string) error {
	body, err := a.readInput(args)
	if err != nil {
		return err
	}

	svc := app.NewDocumentService(app.DocumentServiceConfig{Logger: a.logger})

	doc, report, err := svc.DecodeDocument(cmd.Context(), a.decodeStatus, body)
	if err != nil {
		return withExitCode(err)
	}

	out := newDocumentOutput(doc, nil)
	if a.report {
		out.Report = &report
	}

	return write(a.stdout, a.output, out)
}

func (a *App) readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		body, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return body, nil
	}

	body, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}

	return body, nil
}
