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

package v1beta1

import "testing"

func validSpec() ClusterSpec {
	return ClusterSpec{
		Nodes:     3,
		Resources: ResourceSpec{CPU: 2, Memory: "4Gi"},
	}
}

func TestValidateClusterSpecAcceptsValidSpec(t *testing.T) {
	spec := validSpec()
	if err := ValidateClusterSpec(&spec); err != nil {
		t.Fatalf("expected valid spec to pass, got %v", err)
	}
}

func TestValidateClusterSpecRejectsZeroNodes(t *testing.T) {
	spec := validSpec()
	spec.Nodes = 0
	if err := ValidateClusterSpec(&spec); err == nil {
		t.Fatal("expected zero nodes to be rejected")
	}
}

func TestValidateClusterSpecRejectsMissingMemory(t *testing.T) {
	spec := validSpec()
	spec.Resources.Memory = ""
	if err := ValidateClusterSpec(&spec); err == nil {
		t.Fatal("expected missing memory to be rejected")
	}
}

func TestValidateClusterSpecRejectsMalformedMemoryQuantity(t *testing.T) {
	spec := validSpec()
	spec.Resources.Memory = "not-a-quantity"
	if err := ValidateClusterSpec(&spec); err == nil {
		t.Fatal("expected malformed memory quantity to be rejected")
	}
}

func TestValidateClusterSpecRejectsOutOfRangeMemoryPercentage(t *testing.T) {
	spec := validSpec()
	pct := uint8(150)
	spec.Resources.MemoryPercentage = &pct
	if err := ValidateClusterSpec(&spec); err == nil {
		t.Fatal("expected out-of-range memory percentage to be rejected")
	}
}
