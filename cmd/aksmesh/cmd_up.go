package main

import (
	"github.com/spf13/cobra"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/usecase/deploy"
)

// newCmdUp returns the command that runs the full provisioning pipeline.
func newCmdUp() *cobra.Command {
	var (
		id       string
		location string
		issuer   string
	)
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision AKS, Istio, OPA, DNS, certificates and the demo workload",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := model.NewSession(id, location, model.IssuerClass(issuer))
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "deploy.up", sess.ResourceGroup)
			defer func() { cleanup(err) }()

			u := deploy.New(sess)
			u.Out = cmd.OutOrStdout()
			return u.Execute(ctx)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Deployment ID: 5 lowercase alphanumerics starting with a letter (generated when empty)")
	cmd.Flags().StringVar(&location, "location", model.DefaultLocation, "Azure location")
	cmd.Flags().StringVar(&issuer, "issuer", string(model.IssuerProduction), "Let's Encrypt issuer class (staging|production)")
	return cmd
}
