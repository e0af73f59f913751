/*
Copyright 2025 Misrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package misrecon ingests periodic bank MIS extracts of card-application
// records, reconciles them against previously stored state with a
// forward-only transition guard, and derives the reporting classifications
// (lead quality, KYC completion, journey stage) used by the analytics
// surface. Derivations are pure functions shared by preview, commit and
// reporting so the three can never disagree.
package misrecon

import (
	"embed"
	"fmt"

	"github.com/ankitarsangwan-bit/misrecon/cache"
	"github.com/ankitarsangwan-bit/misrecon/config"
	"github.com/ankitarsangwan-bit/misrecon/database"
	redis_db "github.com/ankitarsangwan-bit/misrecon/internal/redis-db"
	"github.com/redis/go-redis/v9"
)

// Misrecon is the main service struct wiring the datasource, cache and lock
// client into the ingestion and reconciliation flows.
type Misrecon struct {
	datasource database.IDataSource
	cache      cache.Cache
	redis      redis.UniversalClient
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewMisrecon initializes the service from the loaded configuration and the
// provided datasource.
func NewMisrecon(db database.IDataSource) (*Misrecon, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	reportCache, err := cache.NewCache()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", cfg.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	return &Misrecon{datasource: db, cache: reportCache, redis: redisClient.Client()}, nil
}

// NewMisreconWithDeps wires the service from explicit dependencies. A nil
// cache disables report caching and a nil redis client disables upload
// locking.
func NewMisreconWithDeps(db database.IDataSource, reportCache cache.Cache) *Misrecon {
	return &Misrecon{datasource: db, cache: reportCache}
}
