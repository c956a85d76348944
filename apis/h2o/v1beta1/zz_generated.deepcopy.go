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
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *ResourceSpec) DeepCopyInto(out *ResourceSpec) {
	*out = *in
	if in.MemoryPercentage != nil {
		out.MemoryPercentage = new(uint8)
		*out.MemoryPercentage = *in.MemoryPercentage
	}
}

// DeepCopy creates a new ResourceSpec by deep-copying this one.
func (in *ResourceSpec) DeepCopy() *ResourceSpec {
	if in == nil {
		return nil
	}
	out := new(ResourceSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *CustomImageSpec) DeepCopyInto(out *CustomImageSpec) {
	*out = *in
	if in.Command != nil {
		out.Command = new(string)
		*out.Command = *in.Command
	}
}

// DeepCopy creates a new CustomImageSpec by deep-copying this one.
func (in *CustomImageSpec) DeepCopy() *CustomImageSpec {
	if in == nil {
		return nil
	}
	out := new(CustomImageSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *ClusterSpec) DeepCopyInto(out *ClusterSpec) {
	*out = *in
	if in.Version != nil {
		out.Version = new(string)
		*out.Version = *in.Version
	}
	in.Resources.DeepCopyInto(&out.Resources)
	if in.CustomImage != nil {
		out.CustomImage = new(CustomImageSpec)
		in.CustomImage.DeepCopyInto(out.CustomImage)
	}
}

// DeepCopy creates a new ClusterSpec by deep-copying this one.
func (in *ClusterSpec) DeepCopy() *ClusterSpec {
	if in == nil {
		return nil
	}
	out := new(ClusterSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *Condition) DeepCopyInto(out *Condition) {
	*out = *in
}

// DeepCopy creates a new Condition by deep-copying this one.
func (in *Condition) DeepCopy() *Condition {
	if in == nil {
		return nil
	}
	out := new(Condition)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *ClusterStatus) DeepCopyInto(out *ClusterStatus) {
	*out = *in
	if in.Conditions != nil {
		out.Conditions = make([]Condition, len(in.Conditions))
		copy(out.Conditions, in.Conditions)
	}
}

// DeepCopy creates a new ClusterStatus by deep-copying this one.
func (in *ClusterStatus) DeepCopy() *ClusterStatus {
	if in == nil {
		return nil
	}
	out := new(ClusterStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *H2O) DeepCopyInto(out *H2O) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy creates a new H2O by deep-copying this one.
func (in *H2O) DeepCopy() *H2O {
	if in == nil {
		return nil
	}
	out := new(H2O)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *H2O) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *H2OList) DeepCopyInto(out *H2OList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]H2O, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy creates a new H2OList by deep-copying this one.
func (in *H2OList) DeepCopy() *H2OList {
	if in == nil {
		return nil
	}
	out := new(H2OList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *H2OList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
