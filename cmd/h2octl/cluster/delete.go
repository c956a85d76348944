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

	"github.com/spf13/cobra"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/h2oai/h2o-k8s-controller/internal/adapter"
	"github.com/h2oai/h2o-k8s-controller/internal/cli"
)

type deleteOptions struct {
	Namespace      string
	DescriptorAddr string
	DescriptorDB   string
}

func newDeleteCommand(l cli.Logger, kubeconfig *string) *cobra.Command {
	var options deleteOptions

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an H2O cluster",
		Long:  `Request deletion of an H2O cluster. The controller tears it down asynchronously.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			client, err := adapter.NewClientFromKubeconfig(*kubeconfig, false)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if err := client.DeleteH2O(ctx, options.Namespace, name); err != nil {
				if apierrors.IsNotFound(err) {
					l.V(0).Infof("cluster %s not found in namespace %s\n", cli.Bold(name), options.Namespace)
					return nil
				}
				return fmt.Errorf("delete H2O resource: %w", err)
			}

			if store, err := openDescriptorStore(options.DescriptorAddr, options.DescriptorDB); err != nil {
				l.Warnf("descriptor store unavailable, continuing without it: %v", err)
			} else if store != nil {
				defer store.Close()
				if err := store.Delete(ctx, options.Namespace, name); err != nil {
					l.Warnf("failed to remove cluster descriptor: %v", err)
				}
			}

			l.V(0).Infof("cluster %s marked for deletion\n", cli.Bold(name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.Namespace, "namespace", "n", "default", "Namespace the cluster lives in.")
	cmd.Flags().StringVar(&options.DescriptorAddr, "descriptor-addr", "", "Postgres address for descriptor persistence, e.g. localhost:5432. Omit to skip.")
	cmd.Flags().StringVar(&options.DescriptorDB, "descriptor-db", "h2octl", "Postgres database name for descriptor persistence.")

	return cmd
}
