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

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
)

func strPtr(s string) *string { return &s }
func u8Ptr(v uint8) *uint8    { return &v }

func TestPodOfficialImage(t *testing.T) {
	spec := h2ov1beta1.ClusterSpec{
		Nodes:   3,
		Version: strPtr("3.44.0.3"),
		Resources: h2ov1beta1.ResourceSpec{
			CPU:              4,
			Memory:           "8Gi",
			MemoryPercentage: u8Ptr(60),
		},
	}

	pod, err := Pod("my-cluster", "default", 1, spec)
	require.NoError(t, err)

	assert.Equal(t, "my-cluster-1", pod.Name)
	assert.Equal(t, "my-cluster", pod.Labels[names.AppLabelKey])
	assert.Equal(t, "h2oai/h2o-open-source-k8s:3.44.0.3", pod.Spec.Containers[0].Image)
	require.Len(t, pod.Spec.Containers[0].Command, 3)
	assert.Contains(t, pod.Spec.Containers[0].Command[2], "MaxRAMPercentage=60")
	assert.Len(t, pod.Spec.Containers[0].Ports, 3)
}

func TestPodCustomImage(t *testing.T) {
	spec := h2ov1beta1.ClusterSpec{
		Nodes: 1,
		Resources: h2ov1beta1.ResourceSpec{
			CPU:    1,
			Memory: "256Mi",
		},
		CustomImage: &h2ov1beta1.CustomImageSpec{
			Image:   "myregistry/h2o:custom",
			Command: strPtr("/bin/sleep 3600"),
		},
	}

	pod, err := Pod("custom-cluster", "default", 0, spec)
	require.NoError(t, err)
	assert.Equal(t, "myregistry/h2o:custom", pod.Spec.Containers[0].Image)
	assert.Equal(t, []string{"/bin/sleep", "3600"}, pod.Spec.Containers[0].Command)
}

func TestPodRequiresVersionOrCustomImage(t *testing.T) {
	spec := h2ov1beta1.ClusterSpec{
		Nodes: 1,
		Resources: h2ov1beta1.ResourceSpec{
			CPU:    1,
			Memory: "256Mi",
		},
	}

	_, err := Pod("incomplete", "default", 0, spec)
	assert.Error(t, err)
}

func TestHeadlessService(t *testing.T) {
	svc := HeadlessService("my-cluster", "default")
	assert.Equal(t, "my-cluster", svc.Name)
	assert.Equal(t, "None", string(svc.Spec.ClusterIP))
	assert.Equal(t, "my-cluster", svc.Spec.Selector[names.AppLabelKey])
}

func TestLeaderService(t *testing.T) {
	svc := LeaderService("my-cluster", "default")
	assert.Equal(t, "my-cluster-leader", svc.Name)
	assert.Equal(t, "my-cluster-leader", svc.Spec.Selector[names.LeaderLabelKey])
}

func TestClusteringConfigMap(t *testing.T) {
	cm := ClusteringConfigMap("default", []byte("jar-bytes"))
	assert.Equal(t, names.ClusteringConfigMapName, cm.Name)
	assert.Equal(t, []byte("jar-bytes"), cm.BinaryData[names.ClusteringJarPathKey])
}
