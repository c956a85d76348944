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

// Package bootstrap is the CRD Bootstrapper: it ensures the H2O
// CustomResourceDefinition exists in the cluster before the Reconciler
// starts watching it, embedding the manifest at compile time the way the
// original Rust operator embedded deployment/src/crd.rs's typed definition,
// and polling for API-server acceptance the way
// pkg/kube/client.go:WaitForDeploymentReady polls for deployment readiness.
package bootstrap

import (
	_ "embed"
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/yaml"

	"github.com/h2oai/h2o-k8s-controller/internal/errors"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
	"github.com/h2oai/h2o-k8s-controller/internal/template"
)

//go:embed crd.yaml
var crdManifest []byte

// CRDCreator is the subset of adapter.Client the bootstrapper needs.
type CRDCreator interface {
	CreateCRD(ctx context.Context, crd *apiextensionsv1.CustomResourceDefinition) error
	GetCRD(ctx context.Context, name string) (*apiextensionsv1.CustomResourceDefinition, error)
}

// ConfigMapCreator is the subset of adapter.Client EnsureClusteringConfigMap
// needs to refresh the clustering jar ConfigMap.
type ConfigMapCreator interface {
	DeleteConfigMap(ctx context.Context, namespace, name string) error
	EnsureConfigMap(ctx context.Context, cm *corev1.ConfigMap) error
}

// Decode parses the embedded CRD manifest into a typed object. Exposed
// separately from Ensure so tests can assert on the manifest without a
// fake client.
func Decode() (*apiextensionsv1.CustomResourceDefinition, error) {
	crd := &apiextensionsv1.CustomResourceDefinition{}
	if err := yaml.Unmarshal(crdManifest, crd); err != nil {
		return nil, errors.Wrap(err, errors.KindTemplateSerialization, "decode embedded H2O CRD manifest")
	}
	return crd, nil
}

// Ensure creates the H2O CRD if absent and blocks until the API server
// reports it Established and NamesAccepted, or timeout elapses. Safe to
// call on every controller startup - CreateCRD ignores AlreadyExists. If the
// CRD is already installed with a served-version set that disagrees with
// this binary's compiled manifest, Ensure returns a KindVersionMismatch
// error instead of proceeding: the API server would otherwise keep serving
// whatever version it already has, silently stranding this binary's
// reconciler on a schema it doesn't expect.
func Ensure(ctx context.Context, c CRDCreator, timeout time.Duration) error {
	crd, err := Decode()
	if err != nil {
		return err
	}

	existing, err := c.GetCRD(ctx, names.CRDName)
	switch {
	case err == nil:
		if mismatch := versionMismatch(existing, crd); mismatch != "" {
			return errors.New(errors.KindVersionMismatch, mismatch)
		}
	case apierrors.IsNotFound(err):
		// Nothing installed yet - nothing to compare against.
	default:
		return errors.Wrap(err, errors.KindTransientAPI, "fetch existing H2O CRD")
	}

	if err := c.CreateCRD(ctx, crd); err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "create H2O CRD")
	}

	condition := func() (bool, error) {
		got, err := c.GetCRD(ctx, names.CRDName)
		if err != nil {
			return false, nil
		}
		return established(got), nil
	}

	if err := wait.PollImmediate(500*time.Millisecond, timeout, condition); err != nil {
		return errors.Wrap(err, errors.KindTimeout, "wait for H2O CRD to become established")
	}
	return nil
}

// versionMismatch compares the served-version set of an already-installed
// CRD against the compiled manifest's, returning a human-readable
// description of the discrepancy, or "" if they agree.
func versionMismatch(existing, compiled *apiextensionsv1.CustomResourceDefinition) string {
	existingServed := servedVersions(existing)
	compiledServed := servedVersions(compiled)

	if existingServed.equal(compiledServed) {
		return ""
	}
	return fmt.Sprintf(
		"H2O CRD %q is already installed serving versions %v, but this binary expects %v - "+
			"upgrade or remove the installed CRD before starting the controller",
		names.CRDName, existingServed.sorted(), compiledServed.sorted())
}

type versionSet map[string]bool

func servedVersions(crd *apiextensionsv1.CustomResourceDefinition) versionSet {
	set := versionSet{}
	for _, v := range crd.Spec.Versions {
		if v.Served {
			set[v.Name] = true
		}
	}
	return set
}

func (s versionSet) equal(other versionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other[name] {
			return false
		}
	}
	return true
}

func (s versionSet) sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EnsureClusteringConfigMap deletes and recreates the ConfigMap carrying the
// clustering jar at controller startup, refreshing its bytes in case the
// binary (and therefore the jar on disk) changed since the ConfigMap was
// last written - the Reconciler's own EnsureConfigMap call is
// create-if-absent and would never pick up a new jar on an existing
// cluster. jarPathEnv names the environment variable holding the path to
// the jar on disk; it is read here (fatal if unset) rather than accepted as
// a parameter so every call site resolves it the same way.
func EnsureClusteringConfigMap(ctx context.Context, c ConfigMapCreator, namespace, jarPathEnv string) error {
	jarPath, ok := os.LookupEnv(jarPathEnv)
	if !ok || jarPath == "" {
		return errors.New(errors.KindUserInput, "environment variable "+jarPathEnv+" is not set")
	}

	jar, err := os.ReadFile(jarPath)
	if err != nil {
		return errors.Wrapf(err, errors.KindUserInput, "read clustering jar at %s", jarPath)
	}

	if err := c.DeleteConfigMap(ctx, namespace, names.ClusteringConfigMapName); err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "delete stale clustering ConfigMap")
	}

	if err := c.EnsureConfigMap(ctx, template.ClusteringConfigMap(namespace, jar)); err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "recreate clustering ConfigMap")
	}
	return nil
}

func established(crd *apiextensionsv1.CustomResourceDefinition) bool {
	var establishedOK, namesOK bool
	for _, cond := range crd.Status.Conditions {
		switch cond.Type {
		case apiextensionsv1.Established:
			establishedOK = cond.Status == apiextensionsv1.ConditionTrue
		case apiextensionsv1.NamesAccepted:
			namesOK = cond.Status == apiextensionsv1.ConditionTrue
		}
	}
	return establishedOK && namesOK
}
