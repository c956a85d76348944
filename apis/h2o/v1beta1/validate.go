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

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// k8sQuantityPattern mirrors the `pattern` on the memory field of the
// embedded CRD schema, so a malformed quantity is rejected identically
// whether it arrives through h2octl or straight at the API server.
var k8sQuantityPattern = regexp.MustCompile(`^([+-]?[0-9.]+)([eEinumkKMGTP]*[-+]?[0-9]*)$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("k8sQuantity", func(fl validator.FieldLevel) bool {
		return k8sQuantityPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateClusterSpec enforces the `validate` struct tags declared on
// ClusterSpec and its nested types (Nodes >= 1, Resources required, memory
// matching the Kubernetes quantity grammar, etc.), giving both h2octl and
// the Reconciler a single place to reject a malformed spec before it is
// submitted or acted on.
func ValidateClusterSpec(spec *ClusterSpec) error {
	return validate.Struct(spec)
}
