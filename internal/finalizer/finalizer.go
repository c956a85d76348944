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

// Package finalizer is the Finalizer Manager: it adds and removes the
// names.Finalizer token on H2O resources via a JSON merge-patch, the same
// mechanism the original Rust operator used
// (operator/src/deployment/finalizer.rs) rather than a full
// read-modify-write Update, to keep the patch racing concurrent writers to
// a minimum.
package finalizer

import (
	"context"
	"encoding/json"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/errors"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
)

// Patcher is the subset of adapter.Client the Finalizer Manager needs,
// kept narrow so it is trivial to fake in tests.
type Patcher interface {
	PatchH2OMergePatch(ctx context.Context, namespace, name string, patch []byte) error
}

type mergePatchBody struct {
	Metadata mergePatchMetadata `json:"metadata"`
}

type mergePatchMetadata struct {
	Finalizers []string `json:"finalizers"`
}

// Add patches the H2O-managed finalizer onto the resource if it is not
// already present. Safe to call unconditionally on every create-path
// reconciliation.
func Add(ctx context.Context, c Patcher, h2o *h2ov1beta1.H2O) error {
	if h2o.HasFinalizer(names.Finalizer) {
		return nil
	}

	finalizers := append(append([]string{}, h2o.Finalizers...), names.Finalizer)
	patch, err := json.Marshal(mergePatchBody{Metadata: mergePatchMetadata{Finalizers: finalizers}})
	if err != nil {
		return errors.Wrap(err, errors.KindTemplateSerialization, "marshal finalizer add patch")
	}

	if err := c.PatchH2OMergePatch(ctx, h2o.Namespace, h2o.Name, patch); err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "add finalizer")
	}
	return nil
}

// Remove patches the H2O-managed finalizer off the resource, allowing
// Kubernetes to complete the delete that triggered the finalizer-gated
// reconciliation in the first place.
func Remove(ctx context.Context, c Patcher, h2o *h2ov1beta1.H2O) error {
	if !h2o.HasFinalizer(names.Finalizer) {
		return nil
	}

	remaining := make([]string, 0, len(h2o.Finalizers))
	for _, f := range h2o.Finalizers {
		if f != names.Finalizer {
			remaining = append(remaining, f)
		}
	}

	patch, err := json.Marshal(mergePatchBody{Metadata: mergePatchMetadata{Finalizers: remaining}})
	if err != nil {
		return errors.Wrap(err, errors.KindTemplateSerialization, "marshal finalizer remove patch")
	}

	if err := c.PatchH2OMergePatch(ctx, h2o.Namespace, h2o.Name, patch); err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "remove finalizer")
	}
	return nil
}
