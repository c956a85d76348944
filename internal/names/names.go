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

// Package names centralizes the fixed tokens every other package in this
// repository shares: the finalizer used to gate deletion, the ConfigMap and
// CRD names, label keys, and the H2O protocol ports. Keeping them in one
// place avoids typo-drift between the Reconciler, the Pod Fleet Manager and
// the Assisted Clustering Engine.
package names

const (
	// Finalizer is the token the Reconciler places on every H2O resource it
	// takes ownership of. Kubernetes will not hard-delete a resource that
	// carries a finalizer it doesn't recognize until the owning controller
	// removes it.
	Finalizer = "h2os.h2o.ai"

	// ClusteringConfigMapName holds the clustering jar consumed by the H2O
	// container at startup.
	ClusteringConfigMapName = "h2o-clustering"

	// ClusteringJarPathKey is the BinaryData key under which the clustering
	// jar is stored inside ClusteringConfigMapName.
	ClusteringJarPathKey = "h2o-clustering.jar"

	// CRDName is the fully-qualified name of the H2O CustomResourceDefinition.
	CRDName = "h2os.h2o.ai"

	// LeaderLabelKey is set on the pod elected cluster leader once the
	// Assisted Clustering Engine completes the handshake.
	LeaderLabelKey = "h2o_leader_node_pod"

	// AppLabelKey selects all pods belonging to one H2O resource.
	AppLabelKey = "app"

	// LeaderServiceSuffix is appended to the H2O resource name to form the
	// name of the Service pointing at the elected leader pod.
	LeaderServiceSuffix = "-leader"
)

const (
	// DefaultPort is the H2O node-to-node / client-to-node port (flatfile
	// entries are "<ip>:<DefaultPort>").
	DefaultPort = 54321

	// InternalCommPort is the second port opened by the H2O JVM for
	// internal cluster communication.
	InternalCommPort = 54322

	// ClusteringPort serves the assisted clustering HTTP API
	// (/cluster/status, /clustering/flatfile).
	ClusteringPort = 8080
)
