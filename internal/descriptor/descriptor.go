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

// Package descriptor persists a record of the H2O clusters h2octl creates
// when a descriptor store address is given: `h2octl cluster create` upserts
// a row and `h2octl cluster delete` removes it again. `h2octl cluster list`
// reads from the Kubernetes API only, not from this store. Grounded on pkg/cmd/gtctl/cluster/connect/pg/pg.go's use of
// github.com/go-pg/pg/v10, generalized from a one-off connectivity probe
// into a real CRUD layer via go-pg's ORM.
package descriptor

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
)

// ClusterDescriptor is the durable record of one H2O cluster.
type ClusterDescriptor struct {
	tableName struct{} `pg:"h2o_clusters"` //nolint:unused

	Name      string    `pg:",pk"`
	Namespace string    `pg:",pk"`
	Version   string    `pg:",use_zero"`
	Nodes     uint32    `pg:",use_zero"`
	Phase     string    `pg:",use_zero"`
	LeaderPod string    `pg:",use_zero"`
	CreatedAt time.Time `pg:"default:now()"`
	UpdatedAt time.Time `pg:"default:now()"`
}

// Store is a descriptor store backed by Postgres.
type Store struct {
	db *pg.DB
}

// Options configures the Postgres connection a Store talks to.
type Options struct {
	Addr     string
	Database string
	User     string
	Password string
}

// Open connects to Postgres and ensures the h2o_clusters table exists.
func Open(opts Options) (*Store, error) {
	db := pg.Connect(&pg.Options{
		Addr:     opts.Addr,
		Database: opts.Database,
		User:     opts.User,
		Password: opts.Password,
	})

	if err := db.Model((*ClusterDescriptor)(nil)).CreateTable(&orm.CreateTableOptions{IfNotExists: true}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert creates or updates a cluster's descriptor.
func (s *Store) Upsert(ctx context.Context, d *ClusterDescriptor) error {
	d.UpdatedAt = d.UpdatedAt.UTC()
	_, err := s.db.ModelContext(ctx, d).
		OnConflict("(name, namespace) DO UPDATE").
		Set("version = EXCLUDED.version, nodes = EXCLUDED.nodes, phase = EXCLUDED.phase, leader_pod = EXCLUDED.leader_pod, updated_at = EXCLUDED.updated_at").
		Insert()
	return err
}

// Get fetches a single cluster's descriptor.
func (s *Store) Get(ctx context.Context, namespace, name string) (*ClusterDescriptor, error) {
	d := &ClusterDescriptor{Name: name, Namespace: namespace}
	if err := s.db.ModelContext(ctx, d).WherePK().Select(); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns every known descriptor in namespace, newest first.
func (s *Store) List(ctx context.Context, namespace string) ([]*ClusterDescriptor, error) {
	var descriptors []*ClusterDescriptor
	q := s.db.ModelContext(ctx, &descriptors).Order("created_at DESC")
	if namespace != "" {
		q = q.Where("namespace = ?", namespace)
	}
	if err := q.Select(); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// Delete removes a cluster's descriptor. Not found is treated as success.
func (s *Store) Delete(ctx context.Context, namespace, name string) error {
	d := &ClusterDescriptor{Name: name, Namespace: namespace}
	_, err := s.db.ModelContext(ctx, d).WherePK().Delete()
	return err
}
