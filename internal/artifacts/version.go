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

// Package artifacts resolves the --version flag h2octl accepts for cluster
// creation: either a concrete semver tag, validated against the
// h2oai/h2o-open-source-k8s image tagging scheme, or the literal "latest",
// resolved against GitHub releases. Grounded on
// pkg/artifacts/manager.go's latestGitHubReleaseVersion.
package artifacts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v53/github"
)

// LatestVersionTag is the sentinel --version value meaning "resolve the
// newest published release".
const LatestVersionTag = "latest"

const (
	releaseOrg  = "h2oai"
	releaseRepo = "h2o-3"
)

// Resolver looks up H2O release versions.
type Resolver struct {
	github *github.Client
}

// NewResolver builds a Resolver using an unauthenticated GitHub client -
// release listing is a public, low-volume call, so no token is required.
func NewResolver() *Resolver {
	return &Resolver{github: github.NewClient(nil)}
}

// Resolve returns version unchanged if it is a valid H2O release version:
// a semver string, optionally followed by the numeric fourth component H2O
// release tags carry (e.g. "3.44.0.3"). When version is LatestVersionTag or
// empty it resolves it to the latest published h2oai/h2o-3 release tag.
func (r *Resolver) Resolve(ctx context.Context, version string) (string, error) {
	if version != "" && version != LatestVersionTag {
		core := version
		if parts := strings.SplitN(version, ".", 4); len(parts) == 4 {
			if _, err := strconv.ParseUint(parts[3], 10, 32); err != nil {
				return "", fmt.Errorf("invalid H2O version %q: %w", version, err)
			}
			core = strings.Join(parts[:3], ".")
		}
		if _, err := semver.NewVersion(core); err != nil {
			return "", fmt.Errorf("invalid H2O version %q: %w", version, err)
		}
		return version, nil
	}

	release, _, err := r.github.Repositories.GetLatestRelease(ctx, releaseOrg, releaseRepo)
	if err != nil {
		return "", fmt.Errorf("resolve latest H2O release: %w", err)
	}
	return release.GetTagName(), nil
}
