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
	"time"

	"github.com/lucasepe/codename"
	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/adapter"
	"github.com/h2oai/h2o-k8s-controller/internal/artifacts"
	"github.com/h2oai/h2o-k8s-controller/internal/cli"
	"github.com/h2oai/h2o-k8s-controller/internal/descriptor"
)

type createOptions struct {
	Namespace        string
	Version          string
	Nodes            uint32
	CPU              uint32
	Memory           string
	MemoryPercentage uint8
	Wait             bool
	Timeout          int
	DescriptorAddr   string
	DescriptorDB     string
}

func newCreateCommand(l cli.Logger, kubeconfig *string) *cobra.Command {
	var options createOptions

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an H2O cluster",
		Long:  `Create an H2O cluster. If [name] is omitted, a random name is generated.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := clusterName(args)
			if err != nil {
				return err
			}

			client, err := adapter.NewClientFromKubeconfig(*kubeconfig, false)
			if err != nil {
				return err
			}

			ctx, cancel := withOptionalTimeout(context.Background(), options.Timeout)
			defer cancel()

			resolver := artifacts.NewResolver()
			resolvedVersion, err := resolver.Resolve(ctx, options.Version)
			if err != nil {
				return err
			}

			h2o := &h2ov1beta1.H2O{
				ObjectMeta: metav1.ObjectMeta{
					Name:      name,
					Namespace: options.Namespace,
				},
				Spec: h2ov1beta1.ClusterSpec{
					Nodes:   options.Nodes,
					Version: &resolvedVersion,
					Resources: h2ov1beta1.ResourceSpec{
						CPU:    options.CPU,
						Memory: options.Memory,
					},
				},
			}
			if options.MemoryPercentage > 0 {
				h2o.Spec.Resources.MemoryPercentage = &options.MemoryPercentage
			}

			if err := h2ov1beta1.ValidateClusterSpec(&h2o.Spec); err != nil {
				return fmt.Errorf("invalid cluster spec: %w", err)
			}

			l.V(0).Infof("creating H2O cluster %s in namespace %s (%d nodes, version %s)\n",
				cli.Bold(name), cli.Bold(options.Namespace), options.Nodes, cli.Bold(resolvedVersion))

			if err := client.CreateH2O(ctx, h2o); err != nil {
				return fmt.Errorf("create H2O resource: %w", err)
			}

			if store, err := openDescriptorStore(options.DescriptorAddr, options.DescriptorDB); err != nil {
				l.Warnf("descriptor store unavailable, continuing without it: %v", err)
			} else if store != nil {
				defer store.Close()
				if err := store.Upsert(ctx, &descriptor.ClusterDescriptor{
					Name:      name,
					Namespace: options.Namespace,
					Version:   resolvedVersion,
					Nodes:     options.Nodes,
					Phase:     h2ov1beta1.PhasePending,
				}); err != nil {
					l.Warnf("failed to record cluster descriptor: %v", err)
				}
			}

			if !options.Wait {
				l.V(0).Infof("cluster %s submitted\n", cli.Bold(name))
				return nil
			}

			status, err := cli.NewStatus()
			if err != nil {
				return err
			}
			status.Start(fmt.Sprintf("waiting for %s to become ready", name))
			if err := waitUntilReady(ctx, client, options.Namespace, name); err != nil {
				status.Stop(false, fmt.Sprintf("%s did not become ready: %v", name, err))
				return err
			}
			status.Stop(true, fmt.Sprintf("%s is ready", name))

			return nil
		},
	}

	cmd.Flags().StringVarP(&options.Namespace, "namespace", "n", "default", "Namespace to create the cluster in.")
	cmd.Flags().StringVar(&options.Version, "version", artifacts.LatestVersionTag, "H2O release version, or \"latest\".")
	cmd.Flags().Uint32Var(&options.Nodes, "nodes", 3, "Number of H2O nodes.")
	cmd.Flags().Uint32Var(&options.CPU, "cpu", 2, "vCPUs allocated to each H2O pod.")
	cmd.Flags().StringVar(&options.Memory, "memory", "4Gi", "Memory allocated to each H2O pod.")
	cmd.Flags().Uint8Var(&options.MemoryPercentage, "memory-percentage", 0, "Percentage of pod memory given to the H2O JVM heap, 0 uses the renderer's default.")
	cmd.Flags().BoolVar(&options.Wait, "wait", false, "Block until the cluster reports Ready.")
	cmd.Flags().IntVar(&options.Timeout, "timeout", -1, "Timeout in seconds for the command to complete, default is no timeout.")
	cmd.Flags().StringVar(&options.DescriptorAddr, "descriptor-addr", "", "Postgres address for descriptor persistence, e.g. localhost:5432. Omit to skip.")
	cmd.Flags().StringVar(&options.DescriptorDB, "descriptor-db", "h2octl", "Postgres database name for descriptor persistence.")

	return cmd
}

func clusterName(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	rng, err := codename.NewRNG()
	if err != nil {
		return "", fmt.Errorf("generate cluster name: %w", err)
	}
	return codename.Generate(rng, 0), nil
}

func withOptionalTimeout(ctx context.Context, timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
}

func waitUntilReady(ctx context.Context, client *adapter.Client, namespace, name string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		h2o, err := client.GetH2O(ctx, namespace, name)
		if err != nil {
			return err
		}
		if h2o.IsReady() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
