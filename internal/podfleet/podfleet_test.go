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

package podfleet

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
)

type fakeClient struct {
	mu           sync.Mutex
	pods         map[string]*corev1.Pod
	failOnCreate string
	watcher      *watch.FakeWatcher
}

func newFakeClient() *fakeClient {
	return &fakeClient{pods: map[string]*corev1.Pod{}}
}

func (f *fakeClient) CreatePod(_ context.Context, pod *corev1.Pod) (*corev1.Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pod.Name == f.failOnCreate {
		return nil, fmt.Errorf("induced failure creating %s", pod.Name)
	}
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
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods = map[string]*corev1.Pod{}
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

func (f *fakeClient) WatchPods(_ context.Context, _, _ string) (watch.Interface, error) {
	f.watcher = watch.NewFake()
	return f.watcher, nil
}

func spec(nodes uint32) h2ov1beta1.ClusterSpec {
	version := "3.44.0.3"
	return h2ov1beta1.ClusterSpec{
		Nodes:   nodes,
		Version: &version,
		Resources: h2ov1beta1.ResourceSpec{
			CPU:    2,
			Memory: "4Gi",
		},
	}
}

func TestCreatePodsCreatesOnePerNode(t *testing.T) {
	client := newFakeClient()
	mgr := New(client)

	pods, err := mgr.CreatePods(context.Background(), "my-cluster", "default", spec(3))
	require.NoError(t, err)
	assert.Len(t, pods, 3)
	assert.Len(t, client.pods, 3)
}

func TestCreatePodsRollsBackOnPartialFailure(t *testing.T) {
	client := newFakeClient()
	client.failOnCreate = "my-cluster-1"
	mgr := New(client)

	_, err := mgr.CreatePods(context.Background(), "my-cluster", "default", spec(3))
	require.Error(t, err)
	assert.Empty(t, client.pods, "every successfully created pod should have been rolled back")
}

func TestWaitForPodsDedupsByNameAndStopsAtExpectedCount(t *testing.T) {
	client := newFakeClient()
	mgr := New(client)

	done := make(chan struct{})
	var result []*corev1.Pod
	var err error
	go func() {
		result, err = mgr.WaitForPods(context.Background(), "my-cluster", "default", 2, HasPodIP)
		close(done)
	}()

	for client.watcher == nil {
		time.Sleep(time.Millisecond)
	}

	podA := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "a"}, Status: corev1.PodStatus{PodIP: "10.0.0.1"}}
	podB := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "b"}}

	client.watcher.Add(podA)
	client.watcher.Add(podA) // duplicate Added event must not double-count
	client.watcher.Add(podB)
	podBWithIP := podB.DeepCopy()
	podBWithIP.Status.PodIP = "10.0.0.2"
	client.watcher.Modify(podBWithIP)

	<-done
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestWaitForPodsDeletedShortCircuitsWhenNoneExist(t *testing.T) {
	client := newFakeClient()
	mgr := New(client)

	err := mgr.WaitForPodsDeleted(context.Background(), "my-cluster", "default")
	require.NoError(t, err)
	assert.Nil(t, client.watcher, "watch should never start when no pods exist")
}

func TestWaitForPodsDeletedCountsDownFromInitialCount(t *testing.T) {
	client := newFakeClient()
	client.pods["a"] = &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "a"}}
	client.pods["b"] = &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "b"}}
	mgr := New(client)

	done := make(chan error, 1)
	go func() {
		done <- mgr.WaitForPodsDeleted(context.Background(), "my-cluster", "default")
	}()

	for client.watcher == nil {
		time.Sleep(time.Millisecond)
	}

	client.watcher.Delete(&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "a"}})
	select {
	case err := <-done:
		t.Fatalf("returned early after only one of two deletions, err=%v", err)
	case <-time.After(20 * time.Millisecond):
	}

	client.watcher.Delete(&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "b"}})
	require.NoError(t, <-done)
}

func TestWaitForPodsTimesOutViaContext(t *testing.T) {
	client := newFakeClient()
	mgr := New(client)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mgr.WaitForPods(ctx, "my-cluster", "default", 5, HasPodIP)
	assert.Error(t, err)
}
