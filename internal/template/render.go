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

// Package template is the Template Renderer: pure functions that turn a
// ClusterSpec into the typed Kubernetes objects needed to run it (pods, a
// headless discovery service, a leader service). Nothing here touches the
// API server - every function takes values in and returns an object out, so
// it is trivially unit-testable without a fake client.
package template

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/errors"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
)

const officialImageRepository = "h2oai/h2o-open-source-k8s"

const defaultMemoryPercentage = 50

// PodName returns the deterministic name of the pod for ordinal i of an H2O
// cluster named clusterName.
func PodName(clusterName string, i uint32) string {
	return fmt.Sprintf("%s-%d", clusterName, i)
}

// LeaderServiceName returns the name of the Service pointing at the elected
// leader pod.
func LeaderServiceName(clusterName string) string {
	return clusterName + names.LeaderServiceSuffix
}

// resolveImage returns the container image and optional command override
// to use, following the same precedence as the original implementation:
// a CustomImage always wins; otherwise the official image is used, tagged
// with Spec.Version, with the JVM launch command built from the pod's
// memory percentage.
func resolveImage(spec h2ov1beta1.ClusterSpec) (image string, command []string, err error) {
	if spec.CustomImage != nil {
		if spec.CustomImage.Command != nil {
			return spec.CustomImage.Image, strings.Fields(*spec.CustomImage.Command), nil
		}
		return spec.CustomImage.Image, nil, nil
	}

	if spec.Version == nil {
		return "", nil, errors.New(errors.KindUserInput,
			"either spec.version or spec.customImage must be set")
	}

	pct := defaultMemoryPercentage
	if spec.Resources.MemoryPercentage != nil {
		pct = int(*spec.Resources.MemoryPercentage)
	}

	cmd := fmt.Sprintf(
		"java -XX:+UseContainerSupport -XX:MaxRAMPercentage=%d -cp /opt/h2oai/h2o-3/h2o.jar:/opt/h2o-clustering/h2o-clustering.jar water.H2OApp",
		pct)

	return fmt.Sprintf("%s:%s", officialImageRepository, *spec.Version), []string{"/bin/bash", "-c", cmd}, nil
}

// Pod renders the corev1.Pod for ordinal i of clusterName in namespace,
// following ClusterSpec's resource and image configuration. Grounded on
// POD_TEMPLATE / h2o_pod in the original deployment/src/pod.rs.
func Pod(clusterName, namespace string, i uint32, spec h2ov1beta1.ClusterSpec) (*corev1.Pod, error) {
	image, command, err := resolveImage(spec)
	if err != nil {
		return nil, err
	}

	memQty, err := resource.ParseQuantity(spec.Resources.Memory)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindUserInput, "invalid memory quantity %q", spec.Resources.Memory)
	}
	cpuQty := *resource.NewQuantity(int64(spec.Resources.CPU), resource.DecimalSI)

	resources := corev1.ResourceRequirements{
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    cpuQty,
			corev1.ResourceMemory: memQty,
		},
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    cpuQty,
			corev1.ResourceMemory: memQty,
		},
	}

	name := PodName(clusterName, i)

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				names.AppLabelKey: clusterName,
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:    name,
					Image:   image,
					Command: command,
					VolumeMounts: []corev1.VolumeMount{
						{
							Name:      "h2o-clustering-volume",
							MountPath: "/opt/h2o-clustering",
						},
					},
					Ports: []corev1.ContainerPort{
						{ContainerPort: names.DefaultPort, Protocol: corev1.ProtocolTCP},
						{ContainerPort: names.InternalCommPort, Protocol: corev1.ProtocolTCP},
						{ContainerPort: names.ClusteringPort, Protocol: corev1.ProtocolTCP},
					},
					Resources: resources,
					Env: []corev1.EnvVar{
						{Name: "H2O_ASSISTED_CLUSTERING_API_PORT", Value: fmt.Sprintf("%d", names.ClusteringPort)},
						{Name: "H2O_ASSISTED_CLUSTERING_REST", Value: "True"},
					},
				},
			},
			Volumes: []corev1.Volume{
				{
					Name: "h2o-clustering-volume",
					VolumeSource: corev1.VolumeSource{
						ConfigMap: &corev1.ConfigMapVolumeSource{
							LocalObjectReference: corev1.LocalObjectReference{
								Name: names.ClusteringConfigMapName,
							},
						},
					},
				},
			},
		},
	}

	return pod, nil
}

// HeadlessService renders the clusterIP:None discovery service fronting all
// pods of clusterName. Grounded on deployment/src/headless_service.rs.
func HeadlessService(clusterName, namespace string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      clusterName,
			Namespace: namespace,
			Labels: map[string]string{
				names.AppLabelKey: clusterName,
			},
		},
		Spec: corev1.ServiceSpec{
			Type:      corev1.ServiceTypeClusterIP,
			ClusterIP: corev1.ClusterIPNone,
			Selector: map[string]string{
				names.AppLabelKey: clusterName,
			},
			Ports: []corev1.ServicePort{
				{
					Protocol:   corev1.ProtocolTCP,
					Port:       80,
					TargetPort: intstr.FromInt(names.DefaultPort),
				},
			},
		},
	}
}

// LeaderService renders the Service pointing solely at the elected leader
// pod, selected via names.LeaderLabelKey. Grounded on
// clustering::cluster_pods's final `deployment::service::create` call.
func LeaderService(clusterName, namespace string) *corev1.Service {
	svc := HeadlessService(clusterName, namespace)
	svc.Name = LeaderServiceName(clusterName)
	svc.Spec.Selector = map[string]string{
		names.LeaderLabelKey: LeaderServiceName(clusterName),
	}
	return svc
}

// ClusteringConfigMap renders the ConfigMap carrying the clustering jar, as
// BinaryData keyed by names.ClusteringJarPathKey. Grounded on
// deployment/src/configmap.rs::create_clustering_configmap.
func ClusteringConfigMap(namespace string, jar []byte) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      names.ClusteringConfigMapName,
			Namespace: namespace,
		},
		BinaryData: map[string][]byte{
			names.ClusteringJarPathKey: jar,
		},
	}
}
