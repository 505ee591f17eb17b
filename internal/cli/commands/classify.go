package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

// classification is the printed result of classify.
type classification struct {
	Status int    `json:"status" yaml:"status"`
	Kind   string `json:"kind"   yaml:"kind"`
	Error  bool   `json:"error"  yaml:"error"`
}

func (a *App) newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <status>",
		Short: "Classify an HTTP status code",
		Long:  `Classify prints the protocol error kind for an HTTP status code, or None.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid status %q: %w", args[0], err)
			}

			kind := domain.Classify(status)

			return write(a.stdout, a.output, classification{
				Status: status,
				Kind:   kind.String(),
				Error:  kind != domain.KindNone,
			})
		},
	}
}
