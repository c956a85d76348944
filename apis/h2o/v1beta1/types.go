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

package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClusterSpec is the specification of an H2O cluster to run in Kubernetes.
// It determines cluster size, per-pod resources and, optionally, a custom
// container image to run instead of the official H2O image.
type ClusterSpec struct {
	// Nodes is the number of H2O nodes to run. There is exactly one H2O
	// process per pod, so this also determines the pod count.
	// +kubebuilder:validation:Minimum=1
	Nodes uint32 `json:"nodes" validate:"required,min=1"`

	// Version is the H2O release to run, used as the image tag of the
	// official image unless overridden by CustomImage. Must be a tag present
	// in the h2oai/h2o-open-source-k8s Docker Hub repository.
	// +optional
	Version *string `json:"version,omitempty" validate:"omitempty,min=1"`

	// Resources are the per-pod resources allocated to every H2O node.
	Resources ResourceSpec `json:"resources" validate:"required"`

	// CustomImage, when set, replaces the official H2O image and its launch
	// command entirely. The caller is fully responsible for image
	// correctness - the clustering protocol still assumes the H2O default
	// ports are exposed.
	// +optional
	CustomImage *CustomImageSpec `json:"customImage,omitempty" validate:"omitempty"`
}

// ResourceSpec describes the resources allocated to a single H2O pod.
// Limits and requests are always set to the same value so that H2O's memory
// percentage calculations, done inside the JVM, stay reproducible across
// reschedules.
type ResourceSpec struct {
	// CPU is the number of virtual CPUs allocated to each H2O pod.
	// +kubebuilder:validation:Minimum=1
	CPU uint32 `json:"cpu" validate:"required,min=1"`

	// Memory is a Kubernetes-compliant quantity string, e.g. "4Gi".
	Memory string `json:"memory" validate:"required,k8sQuantity"`

	// MemoryPercentage is the percentage of the pod's memory allocated to
	// the H2O JVM heap via -XX:MaxRAMPercentage, from 1 to 100. Values
	// below 100 leave headroom for off-heap XGBoost. Defaults are applied by
	// the template renderer when unset.
	// +optional
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=100
	MemoryPercentage *uint8 `json:"memoryPercentage,omitempty" validate:"omitempty,min=1,max=100"`
}

// CustomImageSpec overrides the official H2O image.
type CustomImageSpec struct {
	// Image is the full image reference, including repository and tag.
	Image string `json:"image" validate:"required"`

	// Command, if set, overrides the container's entrypoint command.
	// +optional
	Command *string `json:"command,omitempty"`
}

// Condition is a single observation of an H2O cluster's state, following
// the standard Kubernetes condition shape.
type Condition struct {
	// Type of the condition, e.g. "Ready".
	Type string `json:"type"`

	// Status of the condition: "True", "False", or "Unknown".
	Status string `json:"status"`

	// Message is a human-readable explanation, set when Status is False.
	Message string `json:"message,omitempty"`
}

// Condition type and status constants used by the Reconciler and Assisted
// Clustering Engine.
const (
	ConditionTypeReady = "Ready"

	ConditionStatusTrue    = "True"
	ConditionStatusFalse   = "False"
	ConditionStatusUnknown = "Unknown"
)

// Cluster lifecycle phases surfaced in ClusterStatus.Phase.
const (
	PhasePending   = "Pending"
	PhaseClustered = "Clustered"
	PhaseRunning   = "Running"
	PhaseDeleting  = "Deleting"
)

// ClusterStatus is the observed state of an H2O cluster, written only by
// the Reconciler and the Assisted Clustering Engine.
type ClusterStatus struct {
	// Phase is a short, human-readable summary of where the cluster is in
	// its lifecycle.
	// +optional
	Phase string `json:"phase,omitempty"`

	// Conditions holds the detailed condition history for the cluster.
	// +optional
	Conditions []Condition `json:"conditions,omitempty"`

	// LeaderPod is the name of the pod elected H2O cluster leader once
	// clustering completes.
	// +optional
	LeaderPod string `json:"leaderPod,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=h2o
// +kubebuilder:printcolumn:name="Nodes",type=integer,JSONPath=".spec.nodes"
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=".status.phase"

// H2O is the schema for the h2os API. Creating one causes the Reconciler to
// stand up an H2O cluster of the requested size; deleting one tears the
// cluster down via the finalizer-gated delete path.
type H2O struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ClusterSpec   `json:"spec,omitempty"`
	Status ClusterStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// H2OList contains a list of H2O clusters.
type H2OList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []H2O `json:"items"`
}

func init() {
	SchemeBuilder.Register(&H2O{}, &H2OList{})
}

// HasFinalizer reports whether the H2O-managed finalizer token is present
// on the resource. Its absence indicates the resource has not yet been
// picked up by the Reconciler.
func (in *H2O) HasFinalizer(token string) bool {
	for _, f := range in.ObjectMeta.Finalizers {
		if f == token {
			return true
		}
	}
	return false
}

// HasDeletionTimestamp reports whether a delete has been requested on this
// resource (e.g. via `kubectl delete`).
func (in *H2O) HasDeletionTimestamp() bool {
	return in.ObjectMeta.DeletionTimestamp != nil
}

// IsReady reports whether the cluster has a Ready/True condition.
func (in *H2O) IsReady() bool {
	for _, c := range in.Status.Conditions {
		if c.Type == ConditionTypeReady && c.Status == ConditionStatusTrue {
			return true
		}
	}
	return false
}
