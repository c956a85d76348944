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

	"sigs.k8s.io/controller-runtime/pkg/client"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
)

// GetH2O fetches a single H2O resource.
func (c *Client) GetH2O(ctx context.Context, namespace, name string) (*h2ov1beta1.H2O, error) {
	h2o := &h2ov1beta1.H2O{}
	if err := c.Runtime.Get(ctx, objectKey(namespace, name), h2o); err != nil {
		return nil, err
	}
	return h2o, nil
}

// CreateH2O submits a new H2O resource, handing it off to the Reconciler.
func (c *Client) CreateH2O(ctx context.Context, h2o *h2ov1beta1.H2O) error {
	return c.Runtime.Create(ctx, h2o)
}

// DeleteH2O requests deletion of an H2O resource. The Reconciler's delete
// path, gated by the finalizer, does the actual teardown.
func (c *Client) DeleteH2O(ctx context.Context, namespace, name string) error {
	h2o := &h2ov1beta1.H2O{}
	if err := c.Runtime.Get(ctx, objectKey(namespace, name), h2o); err != nil {
		return err
	}
	return c.Runtime.Delete(ctx, h2o)
}

// ListH2O returns every H2O resource in namespace, or every namespace if
// namespace is empty.
func (c *Client) ListH2O(ctx context.Context, namespace string) ([]h2ov1beta1.H2O, error) {
	list := &h2ov1beta1.H2OList{}
	opts := []client.ListOption{}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}
	if err := c.Runtime.List(ctx, list, opts...); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// UpdateH2O persists changes to an H2O's spec/metadata (not status).
func (c *Client) UpdateH2O(ctx context.Context, h2o *h2ov1beta1.H2O) error {
	return c.Runtime.Update(ctx, h2o)
}

// UpdateH2OStatus persists changes to an H2O's status subresource.
func (c *Client) UpdateH2OStatus(ctx context.Context, h2o *h2ov1beta1.H2O) error {
	return c.Runtime.Status().Update(ctx, h2o)
}

// PatchH2OMergePatch applies a raw JSON merge patch to an H2O resource -
// used by the Finalizer Manager, which must patch metadata.finalizers
// without a full read-modify-write round trip racing concurrent writers.
func (c *Client) PatchH2OMergePatch(ctx context.Context, namespace, name string, patch []byte) error {
	h2o := &h2ov1beta1.H2O{}
	if err := c.Runtime.Get(ctx, objectKey(namespace, name), h2o); err != nil {
		return err
	}
	return c.Runtime.Patch(ctx, h2o, mergePatch(patch))
}
