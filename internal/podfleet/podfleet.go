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

// Package podfleet is the Pod Fleet Manager: concurrent pod creation with
// rollback on partial failure, label-based deletion, and watch-driven waits
// for pod readiness/deletion. It is the direct Go translation of
// deployment/src/pod.rs, with futures::stream::buffer_unordered replaced by
// golang.org/x/sync/errgroup and the watcher's per-event HashMap dedup
// replaced by a plain map keyed on pod name.
package podfleet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/errors"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
	"github.com/h2oai/h2o-k8s-controller/internal/template"
)

// Client is the subset of adapter.Client the Pod Fleet Manager needs.
type Client interface {
	CreatePod(ctx context.Context, pod *corev1.Pod) (*corev1.Pod, error)
	DeletePod(ctx context.Context, namespace, name string) error
	DeletePodsByLabel(ctx context.Context, namespace, labelSelector string) error
	ListPodsByLabel(ctx context.Context, namespace, labelSelector string) (*corev1.PodList, error)
	WatchPods(ctx context.Context, namespace, labelSelector string) (watch.Interface, error)
}

// Manager drives pod lifecycle for one H2O cluster at a time.
type Manager struct {
	client Client
}

// New builds a Manager over the given Client.
func New(client Client) *Manager {
	return &Manager{client: client}
}

func appSelector(clusterName string) string {
	return fmt.Sprintf("%s=%s", names.AppLabelKey, clusterName)
}

// CreatePods renders and creates one pod per spec.Nodes concurrently. If
// any creation fails, every pod that did get created is rolled back (best
// effort) before returning, mirroring create_pods's erroneous_pods_count
// rollback in the original implementation. The returned KindDeployment
// error wraps only the first creation failure; failures of other pods are
// not collected.
func (m *Manager) CreatePods(ctx context.Context, clusterName, namespace string, spec h2ov1beta1.ClusterSpec) ([]*corev1.Pod, error) {
	created := make([]*corev1.Pod, spec.Nodes)

	g, gctx := errgroup.WithContext(ctx)
	for i := uint32(0); i < spec.Nodes; i++ {
		i := i
		g.Go(func() error {
			pod, err := template.Pod(clusterName, namespace, i, spec)
			if err != nil {
				return err
			}
			result, err := m.client.CreatePod(gctx, pod)
			if err != nil {
				return errors.Wrapf(err, errors.KindTransientAPI, "create pod %s", pod.Name)
			}
			created[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		m.rollback(ctx, clusterName, namespace, created)
		return nil, errors.Wrap(err, errors.KindDeployment, "create pods for "+clusterName)
	}

	return created, nil
}

// rollback deletes every pod that was successfully created before the
// failure, best-effort - a rollback failure is not itself fatal, since the
// caller is already returning the original creation error.
func (m *Manager) rollback(ctx context.Context, clusterName, namespace string, created []*corev1.Pod) {
	g, gctx := errgroup.WithContext(ctx)
	for _, pod := range created {
		if pod == nil {
			continue
		}
		pod := pod
		g.Go(func() error {
			return m.client.DeletePod(gctx, namespace, pod.Name)
		})
	}
	_ = g.Wait()
	_ = clusterName
}

// DeletePodsByLabel deletes every pod belonging to clusterName.
func (m *Manager) DeletePodsByLabel(ctx context.Context, clusterName, namespace string) error {
	if err := m.client.DeletePodsByLabel(ctx, namespace, appSelector(clusterName)); err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "delete pods for "+clusterName)
	}
	return nil
}

// PodPredicate reports whether a pod has reached the state the caller is
// waiting for.
type PodPredicate func(*corev1.Pod) bool

// HasPodIP is the predicate the Assisted Clustering Engine waits on before
// it can address any pod over HTTP.
func HasPodIP(pod *corev1.Pod) bool {
	return pod.Status.PodIP != ""
}

// WaitForPods watches pods labeled for clusterName until expectedCount of
// them satisfy predicate, deduplicating repeated Added/Modified events for
// the same pod by name the way the original wait_pod_status's
// HashMap<String, Pod> did. Returns the deduplicated set once full.
func (m *Manager) WaitForPods(ctx context.Context, clusterName, namespace string, expectedCount int, predicate PodPredicate) ([]*corev1.Pod, error) {
	watcher, err := m.client.WatchPods(ctx, namespace, appSelector(clusterName))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindWatchStream, "watch pods for "+clusterName)
	}
	defer watcher.Stop()

	discovered := make(map[string]*corev1.Pod, expectedCount)

	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.KindTimeout, "wait for pods for "+clusterName)
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return nil, errors.New(errors.KindWatchStream, "pod watch closed for "+clusterName)
			}

			switch event.Type {
			case watch.Added, watch.Modified:
				pod, ok := event.Object.(*corev1.Pod)
				if !ok {
					continue
				}
				if predicate(pod) {
					discovered[pod.Name] = pod
					if len(discovered) == expectedCount {
						return values(discovered), nil
					}
				}
			case watch.Deleted:
				// Deliberately ignored here: a pod disappearing mid-wait is
				// surfaced by the caller's own timeout, not by this loop.
			}
		}
	}
}

// WaitForPodsDeleted blocks until every pod labeled for clusterName has
// been deleted, short-circuiting if none exist at call time.
func (m *Manager) WaitForPodsDeleted(ctx context.Context, clusterName, namespace string) error {
	existing, err := m.client.ListPodsByLabel(ctx, namespace, appSelector(clusterName))
	if err != nil {
		return errors.Wrap(err, errors.KindTransientAPI, "list pods before delete-wait for "+clusterName)
	}
	remaining := len(existing.Items)
	if remaining == 0 {
		return nil
	}

	watcher, err := m.client.WatchPods(ctx, namespace, appSelector(clusterName))
	if err != nil {
		return errors.Wrap(err, errors.KindWatchStream, "watch pods for "+clusterName)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.KindTimeout, "wait for pod deletion for "+clusterName)
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return errors.New(errors.KindWatchStream, "pod watch closed for "+clusterName)
			}
			if event.Type == watch.Deleted {
				remaining--
				if remaining <= 0 {
					return nil
				}
			}
		}
	}
}

func values(m map[string]*corev1.Pod) []*corev1.Pod {
	out := make([]*corev1.Pod, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
