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
)

// EnsureService creates svc if it does not already exist, and is a no-op if
// it does - services are immutable for the purposes of this controller
// (headless discovery service, leader service), so there is nothing to
// reconcile beyond existence.
func (c *Client) EnsureService(ctx context.Context, svc *corev1.Service) error {
	existing := &corev1.Service{}
	err := c.Runtime.Get(ctx, objectKey(svc.Namespace, svc.Name), existing)
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return err
	}
	return c.Runtime.Create(ctx, svc)
}

// DeleteService deletes a service by name. Not found is treated as success.
func (c *Client) DeleteService(ctx context.Context, namespace, name string) error {
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace}}
	if err := c.Runtime.Delete(ctx, svc); err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}
