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

package descriptor

import "testing"

// ClusterDescriptor's primary key is (name, namespace). These tests check
// the plain Go values of the descriptor types without requiring a live
// Postgres connection, since Store's own methods all round-trip through one.
func TestClusterDescriptorHoldsNameAndNamespace(t *testing.T) {
	d := &ClusterDescriptor{Name: "my-cluster", Namespace: "default"}
	if d.Name != "my-cluster" || d.Namespace != "default" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
}

func TestOptionsZeroValueIsUsable(t *testing.T) {
	var opts Options
	if opts.Addr != "" || opts.Database != "" {
		t.Fatalf("expected zero-value Options, got %+v", opts)
	}
}
