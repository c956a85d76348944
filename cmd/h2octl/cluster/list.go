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

package cluster

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/h2oai/h2o-k8s-controller/internal/adapter"
	"github.com/h2oai/h2o-k8s-controller/internal/cli"
)

type listOptions struct {
	Namespace     string
	AllNamespaces bool
}

func newListCommand(l cli.Logger, kubeconfig *string) *cobra.Command {
	var options listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List H2O clusters",
		Long:  `List H2O clusters`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := adapter.NewClientFromKubeconfig(*kubeconfig, false)
			if err != nil {
				return err
			}

			namespace := options.Namespace
			if options.AllNamespaces {
				namespace = ""
			}

			clusters, err := client.ListH2O(context.Background(), namespace)
			if err != nil {
				return fmt.Errorf("list H2O resources: %w", err)
			}

			if len(clusters) == 0 {
				l.V(0).Infof("no clusters found\n")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "Namespace", "Nodes", "Phase", "Leader"})
			for _, c := range clusters {
				table.Append([]string{
					c.Name,
					c.Namespace,
					strconv.FormatUint(uint64(c.Spec.Nodes), 10),
					c.Status.Phase,
					c.Status.LeaderPod,
				})
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().StringVarP(&options.Namespace, "namespace", "n", "default", "Namespace to list clusters in.")
	cmd.Flags().BoolVarP(&options.AllNamespaces, "all-namespaces", "A", false, "List clusters across all namespaces.")

	return cmd
}
