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
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
)

// WatchPods opens a raw watch on pods in namespace matching labelSelector.
// The Pod Fleet Manager uses this (rather than the cached controller-runtime
// client) because it needs to observe every Added/Modified/Deleted event as
// it happens while waiting for pod IPs or pod deletion, mirroring
// kube_runtime::watcher in the original implementation.
func (c *Client) WatchPods(ctx context.Context, namespace, labelSelector string) (watch.Interface, error) {
	return c.Clientset.CoreV1().Pods(namespace).Watch(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
}

// WatchH2O opens a raw watch on a single named H2O resource via the dynamic
// client, for callers outside a controller-runtime watch loop. No code in
// this repository calls it: h2octl's --wait polls GetH2O instead.
func (c *Client) WatchH2O(ctx context.Context, namespace, name string) (watch.Interface, error) {
	return c.Dynamic.Resource(h2oGVR).Namespace(namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fmt.Sprintf("metadata.name=%s", name),
	})
}
