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

// Package clustering drives the H2O Assisted Clustering Engine's HTTP
// protocol: it waits for every pod's embedded engine to come online, hands
// it the flatfile listing every peer, and waits for the engine to elect a
// leader and settle on cluster membership. It is a direct translation of
// operator/src/clustering.rs, with futures::stream::buffer_unordered
// fan-out replaced by golang.org/x/sync/errgroup.
package clustering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"

	"github.com/h2oai/h2o-k8s-controller/internal/errors"
	"github.com/h2oai/h2o-k8s-controller/internal/names"
)

const (
	pollInterval   = 100 * time.Millisecond
	onlineInterval = time.Second
	clusterTimeout = 180 * time.Second
)

// Status is the /cluster/status response body once the engine has settled
// on a leader and cluster membership.
type Status struct {
	LeaderNode     string   `json:"leader_node"`
	HealthyNodes   []string `json:"healthy_nodes"`
	UnhealthyNodes []string `json:"unhealthy_nodes"`
}

// LabelSetter is the subset of adapter.Client the Assisted Clustering
// Engine needs to mark the elected leader pod.
type LabelSetter interface {
	LabelPod(ctx context.Context, namespace, podName, key, value string) error
}

// Engine drives the clustering protocol over HTTP against a fixed set of
// pods, each addressed by IP on names.ClusteringPort.
type Engine struct {
	httpClient *http.Client
	labels     LabelSetter
}

// New builds an Engine. httpClient may be nil, in which case
// http.DefaultClient is used.
func New(labels LabelSetter, httpClient *http.Client) *Engine {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Engine{httpClient: httpClient, labels: labels}
}

func statusURL(ip string) string {
	return fmt.Sprintf("http://%s:%d/cluster/status", ip, names.ClusteringPort)
}

func flatfileURL(ip string) string {
	return fmt.Sprintf("http://%s:%d/clustering/flatfile", ip, names.ClusteringPort)
}

// WaitOnline blocks until every pod's clustering API answers 204 on
// /cluster/status, polling once a second and fanning the per-pod checks out
// concurrently the way wait_clustering_api_online did with buffer_unordered.
func (e *Engine) WaitOnline(ctx context.Context, pods []*corev1.Pod) error {
	ticker := time.NewTicker(onlineInterval)
	defer ticker.Stop()

	for {
		if err := e.allOnline(ctx, pods); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.KindTimeout, "wait for clustering API online")
		case <-ticker.C:
		}
	}
}

func (e *Engine) allOnline(ctx context.Context, pods []*corev1.Pod) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, pod := range pods {
		pod := pod
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, statusURL(pod.Status.PodIP), nil)
			if err != nil {
				return err
			}
			resp, err := e.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				return fmt.Errorf("pod %s clustering API not ready: status %d", pod.Name, resp.StatusCode)
			}
			return nil
		})
	}
	return g.Wait()
}

// flatfile renders the newline-joined "ip:port" list every node's engine
// expects, matching create_flatfile's format exactly.
func flatfile(pods []*corev1.Pod) string {
	lines := make([]string, len(pods))
	for i, pod := range pods {
		lines[i] = fmt.Sprintf("%s:%d", pod.Status.PodIP, names.DefaultPort)
	}
	return strings.Join(lines, "\n")
}

// SendFlatfile posts the peer list to every pod's clustering API
// concurrently, the way send_flatfile drove one POST per node. Any answer
// other than 200 fails with KindDeployment.
func (e *Engine) SendFlatfile(ctx context.Context, pods []*corev1.Pod) error {
	body := flatfile(pods)

	g, gctx := errgroup.WithContext(ctx)
	for _, pod := range pods {
		pod := pod
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodPost, flatfileURL(pod.Status.PodIP), bytes.NewBufferString(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "text/plain")

			resp, err := e.httpClient.Do(req)
			if err != nil {
				return errors.Wrapf(err, errors.KindTransientAPI, "send flatfile to pod %s", pod.Name)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return errors.Wrapf(fmt.Errorf("status %d", resp.StatusCode), errors.KindDeployment, "flatfile rejected by pod %s", pod.Name)
			}
			return nil
		})
	}
	return g.Wait()
}

// WaitClustered polls the first pod's /cluster/status every 100ms, bounded
// by a 180s timeout, until the engine reports 200 with a settled leader and
// node health, matching wait_h2o_clustered.
func (e *Engine) WaitClustered(ctx context.Context, pods []*corev1.Pod) (*Status, error) {
	if len(pods) == 0 {
		return nil, errors.New(errors.KindUserInput, "wait for clustering with no pods")
	}

	ctx, cancel := context.WithTimeout(ctx, clusterTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	probe := pods[0]
	for {
		status, err := e.pollStatus(ctx, probe)
		if err == nil {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.KindTimeout, "wait for H2O cluster to settle")
		case <-ticker.C:
		}
	}
}

func (e *Engine) pollStatus(ctx context.Context, pod *corev1.Pod) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL(pod.Status.PodIP), nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cluster not yet settled: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	status := &Status{}
	if err := json.Unmarshal(raw, status); err != nil {
		return nil, errors.Wrap(err, errors.KindTemplateSerialization, "decode cluster status")
	}
	return status, nil
}

// LabelLeader parses the host out of status.LeaderNode (the engine reports
// it as "<ip>:<port>"), finds the pod whose status.podIP matches, and marks
// it with names.LeaderLabelKey so the leader Service's selector resolves to
// it. Returns the leader pod's name.
func (e *Engine) LabelLeader(ctx context.Context, namespace string, status *Status, pods []*corev1.Pod, clusterName string) (string, error) {
	leaderIP, _, err := net.SplitHostPort(status.LeaderNode)
	if err != nil {
		return "", errors.Wrapf(err, errors.KindDeployment, "parse leader address %q", status.LeaderNode)
	}

	leader := findPodByIP(pods, leaderIP)
	if leader == nil {
		return "", errors.New(errors.KindDeployment, "no pod found with IP "+leaderIP+" reported as cluster leader")
	}

	if err := e.labels.LabelPod(ctx, namespace, leader.Name, names.LeaderLabelKey, clusterName+names.LeaderServiceSuffix); err != nil {
		return "", errors.Wrap(err, errors.KindTransientAPI, "label leader pod "+leader.Name)
	}
	return leader.Name, nil
}

func findPodByIP(pods []*corev1.Pod, ip string) *corev1.Pod {
	for _, pod := range pods {
		if pod.Status.PodIP == ip {
			return pod
		}
	}
	return nil
}
