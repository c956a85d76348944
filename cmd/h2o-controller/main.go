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

// Command h2o-controller runs the H2O Cluster Controller: it bootstraps the
// H2O CRD, then starts a controller-runtime manager that reconciles H2O
// objects into running, clustered H2O deployments.
package main

import (
	"flag"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	h2ov1beta1 "github.com/h2oai/h2o-k8s-controller/apis/h2o/v1beta1"
	"github.com/h2oai/h2o-k8s-controller/internal/adapter"
	"github.com/h2oai/h2o-k8s-controller/internal/bootstrap"
	"github.com/h2oai/h2o-k8s-controller/internal/clustering"
	"github.com/h2oai/h2o-k8s-controller/internal/errors"
	"github.com/h2oai/h2o-k8s-controller/internal/podfleet"
	"github.com/h2oai/h2o-k8s-controller/internal/reconciler"
)

const (
	crdEstablishTimeout = 30 * time.Second

	// clusteringJarPathEnv names the environment variable pointing at the
	// Assisted Clustering Engine jar on disk. Read once at startup so the
	// clustering ConfigMap can be deleted and recreated with fresh bytes
	// before the manager ever starts reconciling - the original operator
	// refreshed this ConfigMap on every process start for the same reason.
	clusteringJarPathEnv = "H2O_CLUSTERING_JAR_PATH"

	// controllerNamespaceEnv names the environment variable holding the
	// namespace the clustering ConfigMap is created in. Downward-API
	// populated in the controller's own Deployment manifest.
	controllerNamespaceEnv = "CONTROLLER_NAMESPACE"
)

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8081", "address the metrics endpoint binds to")
	klog.InitFlags(nil)
	flag.Parse()

	ctrl.SetLogger(klog.NewKlogr())

	cfg, err := config.GetConfig()
	if err != nil {
		klog.Fatalf("failed to load kubeconfig: %v", err)
	}

	client, err := adapter.NewClient(cfg)
	if err != nil {
		klog.Fatalf("failed to build Kubernetes client: %v", err)
	}

	klog.Info("ensuring H2O CRD is installed")
	signalCtx := ctrl.SetupSignalHandler()
	if err := bootstrap.Ensure(signalCtx, client, crdEstablishTimeout); err != nil {
		if errors.Is(err, errors.KindVersionMismatch) {
			klog.Errorf("H2O CRD version mismatch: %v", err)
			os.Exit(1)
		}
		klog.Fatalf("failed to establish H2O CRD: %v", err)
	}

	namespace := os.Getenv(controllerNamespaceEnv)
	if namespace == "" {
		namespace = "default"
	}
	klog.Info("refreshing clustering ConfigMap")
	if err := bootstrap.EnsureClusteringConfigMap(signalCtx, client, namespace, clusteringJarPathEnv); err != nil {
		klog.Fatalf("failed to refresh clustering ConfigMap: %v", err)
	}
	jar, err := os.ReadFile(os.Getenv(clusteringJarPathEnv))
	if err != nil {
		klog.Fatalf("failed to read clustering jar: %v", err)
	}

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		klog.Fatalf("failed to register client-go scheme: %v", err)
	}
	if err := h2ov1beta1.AddToScheme(scheme); err != nil {
		klog.Fatalf("failed to register H2O scheme: %v", err)
	}

	mgr, err := ctrl.NewManager(cfg, ctrl.Options{
		Scheme:             scheme,
		MetricsBindAddress: metricsAddr,
	})
	if err != nil {
		klog.Fatalf("failed to start manager: %v", err)
	}

	r := &reconciler.Reconciler{
		Client:        client,
		PodFleet:      podfleet.New(client),
		Clustering:    clustering.New(client, nil),
		ClusteringJar: jar,
	}
	if err := r.SetupWithManager(mgr); err != nil {
		klog.Fatalf("failed to register reconciler: %v", err)
	}

	klog.Info("starting manager")
	if err := mgr.Start(signalCtx); err != nil {
		klog.Fatalf("manager exited with error: %v", err)
	}
}
