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

package cluster

import (
	"github.com/h2oai/h2o-k8s-controller/internal/descriptor"
)

// openDescriptorStore opens the descriptor store at addr, or returns a nil
// Store when addr is empty - descriptor persistence is optional, every
// command works against the Kubernetes API alone.
func openDescriptorStore(addr, database string) (*descriptor.Store, error) {
	if addr == "" {
		return nil, nil
	}
	return descriptor.Open(descriptor.Options{Addr: addr, Database: database})
}
