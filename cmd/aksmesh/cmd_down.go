package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaegashi/aksmesh/adapters/azure"
	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/execx"
	"github.com/yaegashi/aksmesh/usecase/cleanup"
	"github.com/yaegashi/aksmesh/usecase/deploy"
)

// newCmdDown returns the command that deletes a deployment's resource group.
func newCmdDown() *cobra.Command {
	var (
		id       string
		location string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Delete the deployment's resource group and everything in it",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if id == "" {
				return &model.ValidationError{Field: "id", Reason: "required for down"}
			}
			sess, err := model.NewSession(id, location, "")
			if err != nil {
				return err
			}
			ctx, cleanupLog := withCmdRunLogger(cmd.Context(), "deploy.down", sess.ResourceGroup)
			defer func() { cleanupLog(err) }()

			subscriptionID, _, err := deploy.ResolveSubscriptionID(ctx, execx.Local{})
			if err != nil {
				return err
			}
			azc, err := azure.NewDefault(subscriptionID, sess.Location)
			if err != nil {
				return fmt.Errorf("build azure client: %w", err)
			}

			u := cleanup.New(sess, azc, yes)
			u.In = cmd.InOrStdin()
			u.Out = cmd.OutOrStdout()
			return u.Execute(ctx)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Deployment ID to tear down")
	cmd.Flags().StringVar(&location, "location", model.DefaultLocation, "Azure location")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
