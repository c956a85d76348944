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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/h2oai/h2o-k8s-controller/cmd/h2octl/cluster"
	"github.com/h2oai/h2o-k8s-controller/cmd/h2octl/version"
	"github.com/h2oai/h2o-k8s-controller/internal/cli"
	internalversion "github.com/h2oai/h2o-k8s-controller/internal/version"
)

const h2octlTextBanner = "  _     ____          __  __\n | |   |___ \\   ___  / _||_ |\n | |__   __) | / _ \\| |   | |\n | '_ \\ |__ <  | (_) | |_ _| |\n |_| |_||___/  \\___/ \\___(_|_)\n"

func newRootCommand() *cobra.Command {
	var (
		verbosity  int32
		kubeconfig string

		l = cli.New(os.Stdout, cli.Level(verbosity), cli.WithColored())
	)

	cmd := &cobra.Command{
		Use:          "h2octl",
		Short:        "h2octl is a command-line tool for managing H2O clusters.",
		Long:         fmt.Sprintf("%s\nh2octl is a command-line tool for managing H2O clusters on Kubernetes.", h2octlTextBanner),
		Version:      internalversion.Get().String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l.SetVerbosity(cli.Level(verbosity))
			return nil
		},
	}

	cmd.PersistentFlags().Int32VarP(&verbosity, "verbosity", "v", 0, "info log verbosity, higher value produces more output")
	cmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "path to a kubeconfig file, defaults to ~/.kube/config")

	cmd.AddCommand(version.NewVersionCommand())
	cmd.AddCommand(cluster.NewClusterCommand(l, &kubeconfig))

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
