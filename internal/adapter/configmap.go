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
)

// ConfigMapExists reports whether a ConfigMap is present in namespace.
func (c *Client) ConfigMapExists(ctx context.Context, namespace, name string) (bool, error) {
	existing := &corev1.ConfigMap{}
	err := c.Runtime.Get(ctx, objectKey(namespace, name), existing)
	if err == nil {
		return true, nil
	}
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// EnsureConfigMap creates cm if it does not already exist.
func (c *Client) EnsureConfigMap(ctx context.Context, cm *corev1.ConfigMap) error {
	exists, err := c.ConfigMapExists(ctx, cm.Namespace, cm.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.Runtime.Create(ctx, cm)
}

// DeleteConfigMap deletes a ConfigMap by name. Not found is treated as
// success.
func (c *Client) DeleteConfigMap(ctx context.Context, namespace, name string) error {
	cm := &corev1.ConfigMap{}
	if err := c.Runtime.Get(ctx, objectKey(namespace, name), cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := c.Runtime.Delete(ctx, cm); err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}
