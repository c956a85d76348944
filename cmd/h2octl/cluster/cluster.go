// Copyright 2024 H2O.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cluster implements the `h2octl cluster` command tree: create,
// delete and list H2O clusters against whatever Kubernetes context
// kubeconfig resolves to.
package cluster

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/h2oai/h2o-k8s-controller/internal/cli"
)

// NewClusterCommand builds the `h2octl cluster` command and its
// subcommands. kubeconfig is a pointer to the root command's persistent
// --kubeconfig flag so every subcommand sees the value set at parse time.
func NewClusterCommand(l cli.Logger, kubeconfig *string) *cobra.Command {
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Use:   "cluster",
		Short: "Manage H2O clusters",
		Long:  `Manage H2O clusters in Kubernetes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return err
			}
			return errors.New("subcommand is required")
		},
	}

	cmd.AddCommand(newCreateCommand(l, kubeconfig))
	cmd.AddCommand(newDeleteCommand(l, kubeconfig))
	cmd.AddCommand(newListCommand(l, kubeconfig))

	return cmd
}
