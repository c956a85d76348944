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

package adapter

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CreatePod creates a single pod, returning the object as persisted by the
// API server (with UID/ResourceVersion populated).
func (c *Client) CreatePod(ctx context.Context, pod *corev1.Pod) (*corev1.Pod, error) {
	if err := c.Runtime.Create(ctx, pod); err != nil {
		return nil, err
	}
	return pod, nil
}

// DeletePod deletes a single pod by name. Not found is treated as success.
func (c *Client) DeletePod(ctx context.Context, namespace, name string) error {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace}}
	if err := c.Runtime.Delete(ctx, pod); err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}

// ListPodsByLabel lists all pods in namespace matching labelSelector
// ("app=<name>" style).
func (c *Client) ListPodsByLabel(ctx context.Context, namespace, labelSelector string) (*corev1.PodList, error) {
	selector, err := labels.Parse(labelSelector)
	if err != nil {
		return nil, err
	}
	list := &corev1.PodList{}
	if err := c.Runtime.List(ctx, list, &client.ListOptions{Namespace: namespace, LabelSelector: selector}); err != nil {
		return nil, err
	}
	return list, nil
}

// DeletePodsByLabel deletes every pod in namespace matching labelSelector.
// Used by the Pod Fleet Manager for delete-path teardown; create-path
// rollback deletes pods one by one through DeletePod instead.
func (c *Client) DeletePodsByLabel(ctx context.Context, namespace, labelSelector string) error {
	pods, err := c.ListPodsByLabel(ctx, namespace, labelSelector)
	if err != nil {
		return err
	}
	for i := range pods.Items {
		if err := c.DeletePod(ctx, namespace, pods.Items[i].Name); err != nil {
			return err
		}
	}
	return nil
}

// LabelPod merge-patches a single label onto a pod, used to mark the
// cluster's elected leader once the Assisted Clustering Engine reports one.
func (c *Client) LabelPod(ctx context.Context, namespace, podName, key, value string) error {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: podName, Namespace: namespace}}
	patch := []byte(`{"metadata":{"labels":{"` + key + `":"` + value + `"}}}`)
	return c.Runtime.Patch(ctx, pod, mergePatch(patch))
}
