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

package reconciler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	ctrl "sigs.k8s.io/controller-runtime"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/clustering"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
	"github.com/h2oai/h2o-k8s-controller/internal/podfleet"
)

func TestReconciler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reconciler Suite")
}

// fakeClient is an in-memory stand-in for the Reconciler's Client
// dependency, recording call order so tests can assert on standup/teardown
// sequencing the way the original create/delete paths require.
type fakeClient struct {
	mu sync.Mutex

	h2o *h2ov1beta1.H2O

	pods             map[string]*corev1.Pod
	services         map[string]*corev1.Service
	configMapEnsured bool
	patches          [][]byte
	statusUpdates    []h2ov1beta1.ClusterStatus
	calls            []string
	watcher          *watch.FakeWatcher
}

func newFakeClient(h2o *h2ov1beta1.H2O) *fakeClient {
	return &fakeClient{
		h2o:      h2o,
		pods:     map[string]*corev1.Pod{},
		services: map[string]*corev1.Service{},
	}
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeClient) GetH2O(_ context.Context, namespace, name string) (*h2ov1beta1.H2O, error) {
	if f.h2o == nil || f.h2o.Namespace != namespace || f.h2o.Name != name {
		return nil, apierrors.NewNotFound(schema.GroupResource{}, name)
	}
	cp := *f.h2o
	return &cp, nil
}

func (f *fakeClient) UpdateH2OStatus(_ context.Context, h2o *h2ov1beta1.H2O) error {
	f.record("UpdateH2OStatus")
	f.statusUpdates = append(f.statusUpdates, h2o.Status)
	f.h2o.Status = h2o.Status
	return nil
}

func (f *fakeClient) PatchH2OMergePatch(_ context.Context, _, _ string, patch []byte) error {
	f.record("PatchH2OMergePatch")
	f.patches = append(f.patches, patch)

	var body struct {
		Metadata struct {
			Finalizers []string `json:"finalizers"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(patch, &body); err != nil {
		return err
	}
	f.h2o.Finalizers = body.Metadata.Finalizers
	return nil
}

func (f *fakeClient) EnsureConfigMap(_ context.Context, _ *corev1.ConfigMap) error {
	f.record("EnsureConfigMap")
	f.configMapEnsured = true
	return nil
}

func (f *fakeClient) EnsureService(_ context.Context, svc *corev1.Service) error {
	f.record("EnsureService:" + svc.Name)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services[svc.Name] = svc
	return nil
}

func (f *fakeClient) DeleteService(_ context.Context, _, name string) error {
	f.record("DeleteService:" + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.services, name)
	return nil
}

func (f *fakeClient) ListPodsByLabel(_ context.Context, _, _ string) (*corev1.PodList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := &corev1.PodList{}
	for _, p := range f.pods {
		list.Items = append(list.Items, *p)
	}
	return list, nil
}

// podfleet.Client implementation, sharing state with fakeClient so a
// single fake backs both the Reconciler's Client and its Pod Fleet Manager.
func (f *fakeClient) CreatePod(_ context.Context, pod *corev1.Pod) (*corev1.Pod, error) {
	f.record("CreatePod:" + pod.Name)
	f.mu.Lock()
	defer f.mu.Unlock()
	pod.Status.PodIP = "10.0.0." + pod.Name[len(pod.Name)-1:]
	f.pods[pod.Name] = pod
	return pod, nil
}

func (f *fakeClient) DeletePod(_ context.Context, _, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pods, name)
	return nil
}

func (f *fakeClient) DeletePodsByLabel(_ context.Context, _, _ string) error {
	f.record("DeletePodsByLabel")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods = map[string]*corev1.Pod{}
	return nil
}

// WatchPods replays every pod already present at watch-start as an Added
// event before any later mutation, the way a real watch would deliver the
// initial list state - CreatePod happens-before WaitForPods's WatchPods
// call in the create path, so without this replay no event would ever
// arrive for pods created before the watch began.
func (f *fakeClient) WatchPods(_ context.Context, _, _ string) (watch.Interface, error) {
	f.watcher = watch.NewFake()

	f.mu.Lock()
	existing := make([]*corev1.Pod, 0, len(f.pods))
	for _, p := range f.pods {
		existing = append(existing, p)
	}
	f.mu.Unlock()

	go func() {
		for _, p := range existing {
			f.watcher.Add(p)
		}
	}()

	return f.watcher, nil
}

func (f *fakeClient) LabelPod(_ context.Context, _, podName, _, _ string) error {
	f.record("LabelPod:" + podName)
	return nil
}

var _ = Describe("examine", func() {
	It("classifies a brand new object as Create", func() {
		h2o := &h2ov1beta1.H2O{}
		Expect(examine(h2o)).To(Equal(actionCreate))
	})

	It("classifies a finalized object with a deletion timestamp as Delete", func() {
		now := metav1.Now()
		h2o := &h2ov1beta1.H2O{ObjectMeta: metav1.ObjectMeta{
			Finalizers:        []string{names.Finalizer},
			DeletionTimestamp: &now,
		}}
		Expect(examine(h2o)).To(Equal(actionDelete))
	})

	It("classifies a steady-state object as Verify", func() {
		h2o := &h2ov1beta1.H2O{ObjectMeta: metav1.ObjectMeta{Finalizers: []string{names.Finalizer}}}
		Expect(examine(h2o)).To(Equal(actionVerify))
	})

	It("classifies a deletion-timestamped object with no finalizer as Verify", func() {
		now := metav1.Now()
		h2o := &h2ov1beta1.H2O{ObjectMeta: metav1.ObjectMeta{DeletionTimestamp: &now}}
		Expect(examine(h2o)).To(Equal(actionVerify))
	})
})

var _ = Describe("Reconcile", func() {
	It("is a no-op when the H2O object has already been deleted", func() {
		client := newFakeClient(nil)
		r := &Reconciler{Client: client, PodFleet: podfleet.New(client)}

		result, err := r.Reconcile(context.Background(), ctrl.Request{
			NamespacedName: types.NamespacedName{Namespace: "default", Name: "gone"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RequeueAfter).To(BeZero())
	})

	It("runs the full create sequence and marks the cluster Ready", func() {
		version := "3.44.0.3"
		h2o := &h2ov1beta1.H2O{
			ObjectMeta: metav1.ObjectMeta{Name: "my-cluster", Namespace: "default"},
			Spec: h2ov1beta1.ClusterSpec{
				Nodes:   1,
				Version: &version,
				Resources: h2ov1beta1.ResourceSpec{
					CPU:    1,
					Memory: "2Gi",
				},
			},
		}
		client := newFakeClient(h2o)

		// Before the flatfile lands, /cluster/status answers 204 (engine
		// online, not yet clustered); afterward it answers 200 with the
		// settled leader, matching the two phases WaitOnline/WaitClustered
		// each poll for.
		var flatfileReceived int32
		statusServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.URL.Path {
			case "/cluster/status":
				if atomic.LoadInt32(&flatfileReceived) == 0 {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				status := clustering.Status{LeaderNode: "10.0.0.0:54321", HealthyNodes: []string{"my-cluster-0"}}
				body, _ := json.Marshal(status)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
			case "/clustering/flatfile":
				_, _ = io.ReadAll(req.Body)
				atomic.StoreInt32(&flatfileReceived, 1)
				w.WriteHeader(http.StatusOK)
			}
		}))
		defer statusServer.Close()

		target, _ := url.Parse(statusServer.URL)
		httpClient := &http.Client{Transport: redirectAllTo{target}}

		r := &Reconciler{
			Client:     client,
			PodFleet:   podfleet.New(client),
			Clustering: clustering.New(client, httpClient),
		}

		result, err := r.Reconcile(context.Background(), ctrl.Request{
			NamespacedName: types.NamespacedName{Namespace: h2o.Namespace, Name: h2o.Name},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RequeueAfter).To(Equal(requeueAfterSuccess))

		Expect(client.configMapEnsured).To(BeTrue())
		Expect(client.services).To(HaveKey("my-cluster"))
		Expect(client.services).To(HaveKey("my-cluster-leader"))
		Expect(client.pods).To(HaveKey("my-cluster-0"))

		Expect(client.statusUpdates).NotTo(BeEmpty())
		last := client.statusUpdates[len(client.statusUpdates)-1]
		Expect(last.Phase).To(Equal(h2ov1beta1.PhaseRunning))
		Expect(last.LeaderPod).To(Equal("my-cluster-0"))
		Expect(last.Conditions).To(ContainElement(h2ov1beta1.Condition{
			Type: h2ov1beta1.ConditionTypeReady, Status: h2ov1beta1.ConditionStatusTrue,
		}))

		Expect(client.h2o.Finalizers).To(ContainElement(names.Finalizer))
	})

	It("marks Ready=False without requeuing when the spec is invalid", func() {
		h2o := &h2ov1beta1.H2O{
			ObjectMeta: metav1.ObjectMeta{Name: "bad-cluster", Namespace: "default"},
			Spec:       h2ov1beta1.ClusterSpec{Nodes: 0},
		}
		client := newFakeClient(h2o)
		r := &Reconciler{Client: client, PodFleet: podfleet.New(client)}

		result, err := r.Reconcile(context.Background(), ctrl.Request{
			NamespacedName: types.NamespacedName{Namespace: h2o.Namespace, Name: h2o.Name},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RequeueAfter).To(BeZero())

		Expect(client.statusUpdates).NotTo(BeEmpty())
		last := client.statusUpdates[len(client.statusUpdates)-1]
		Expect(last.Conditions).To(HaveLen(1))
		Expect(last.Conditions[0].Type).To(Equal(h2ov1beta1.ConditionTypeReady))
		Expect(last.Conditions[0].Status).To(Equal(h2ov1beta1.ConditionStatusFalse))
		Expect(client.h2o.Finalizers).NotTo(ContainElement(names.Finalizer))
	})

	It("runs the full delete sequence and lifts the finalizer", func() {
		h2o := &h2ov1beta1.H2O{
			ObjectMeta: metav1.ObjectMeta{
				Name: "my-cluster", Namespace: "default",
				Finalizers:        []string{names.Finalizer},
				DeletionTimestamp: &metav1.Time{Time: timeNow()},
			},
			Spec: h2ov1beta1.ClusterSpec{Nodes: 1},
		}
		client := newFakeClient(h2o)
		client.services["my-cluster"] = &corev1.Service{}
		client.services["my-cluster-leader"] = &corev1.Service{}
		client.pods["my-cluster-0"] = &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "my-cluster-0"}}

		r := &Reconciler{Client: client, PodFleet: podfleet.New(client)}

		// DeletePodsByLabel removes the pods synchronously here, so
		// WaitForPodsDeleted's own initial List sees zero remaining and
		// short-circuits without ever needing to watch - exercising that
		// fast path, while podfleet_test.go separately exercises the
		// watch-driven countdown when deletion is NOT instantaneous.
		result, err := r.Reconcile(context.Background(), ctrl.Request{
			NamespacedName: types.NamespacedName{Namespace: h2o.Namespace, Name: h2o.Name},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RequeueAfter).To(BeZero())

		Expect(client.services).NotTo(HaveKey("my-cluster-leader"))
		Expect(client.services).NotTo(HaveKey("my-cluster"))
		Expect(client.h2o.Finalizers).NotTo(ContainElement(names.Finalizer))
	})
})

type redirectAllTo struct {
	target *url.URL
}

func (t redirectAllTo) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func timeNow() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}
