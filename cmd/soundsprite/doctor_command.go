package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"soundsprite/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the encoder and its tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.EncoderRequirements(cfg.Encoder.Binary))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
				}
				rows = append(rows, []string{status.Name, state, yesNo(status.Optional), status.Command, status.Detail})
			}
			out := cmd.OutOrStdout()
			printRows(out, []string{"Dependency", "Status", "Optional", "Command", "Detail"}, rows, nil)

			if deps.MissingRequired(statuses) {
				return errors.New("required dependencies are missing")
			}
			fmt.Fprintln(out, "All required dependencies found")
			return nil
		},
	}
}
