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

// Package adapter is the Resource Adapter: the only package in this
// repository that talks to the Kubernetes API directly. Everything else -
// the Reconciler, the Pod Fleet Manager, the Finalizer Manager, the CRD
// Bootstrapper - goes through the Client it exposes here, the same way
// pkg/kube.Client is the sole entry point to the cluster in the teacher
// repo.
package adapter

import (
	"fmt"
	"path/filepath"
	"sync"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/controller-runtime/pkg/client"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
)

// h2oGVR identifies the H2O custom resource for the dynamic client, the
// same pattern gtctl uses for GreptimeDBCluster in pkg/kube/client.go since
// no generated typed clientset exists for it.
var h2oGVR = schema.GroupVersionResource{Group: "h2o.ai", Version: "v1beta1", Resource: "h2os"}

// Client bundles the Kubernetes API surfaces the controller needs: a typed
// controller-runtime client for H2O/Pod/Service/ConfigMap CRUD and caching,
// a client-go clientset for raw pod watches (the Pod Fleet Manager needs
// watch.Interface, which controller-runtime's client doesn't expose
// directly), a dynamic client for raw H2O watches, and an apiextensions
// clientset to create and poll the CRD itself.
type Client struct {
	Runtime   client.Client
	Clientset kubernetes.Interface
	Dynamic   dynamic.Interface
	APIExt    apiextensionsclientset.Interface
}

var addToScheme sync.Once

// NewClientFromKubeconfig builds a Client from a kubeconfig path, falling
// back to ~/.kube/config when kubeconfig is empty, the way
// pkg/kube.NewClient does. Pass inCluster=true from inside a cluster to use
// in-cluster config instead; kubeconfig is then ignored.
func NewClientFromKubeconfig(kubeconfig string, inCluster bool) (*Client, error) {
	cfg, err := loadConfig(kubeconfig, inCluster)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg)
}

func loadConfig(kubeconfig string, inCluster bool) (*rest.Config, error) {
	if inCluster {
		return rest.InClusterConfig()
	}

	if kubeconfig == "" {
		home := homedir.HomeDir()
		if home == "" {
			return nil, fmt.Errorf("kubeconfig not found")
		}
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

// NewClient builds a Client from an already-resolved rest.Config.
func NewClient(cfg *rest.Config) (*Client, error) {
	var outerErr error
	addToScheme.Do(func() {
		if err := apiextensionsv1.AddToScheme(scheme.Scheme); err != nil {
			outerErr = err
			return
		}
		if err := h2ov1beta1.AddToScheme(scheme.Scheme); err != nil {
			outerErr = err
			return
		}
	})
	if outerErr != nil {
		return nil, outerErr
	}

	runtimeClient, err := client.New(cfg, client.Options{Scheme: scheme.Scheme})
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}

	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}

	apiExt, err := apiextensionsclientset.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{Runtime: runtimeClient, Clientset: clientset, Dynamic: dynamicClient, APIExt: apiExt}, nil
}
