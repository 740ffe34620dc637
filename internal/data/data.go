// Package data provides data access layer implementations.
// It owns the cache tiers and the durable map entry store.
package data

import (
	"github.com/google/wire"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewRedisClient,
	NewCacheClient,
	NewMySQLClient,
	NewMapEntryRepo,
)
