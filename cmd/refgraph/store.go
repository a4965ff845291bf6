package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/aretw0/refgraph/pkg/adapters/file"
	"github.com/aretw0/refgraph/pkg/adapters/postgres"
	"github.com/aretw0/refgraph/pkg/adapters/redis"
	"github.com/aretw0/refgraph/pkg/adapters/s3"
	"github.com/aretw0/refgraph/pkg/adapters/sqlite"
	"github.com/aretw0/refgraph/pkg/persistence/middleware"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/spf13/cobra"
)

// addStoreFlags declares the snapshot store selection flags on cmd and its children.
func addStoreFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("store", "file", "Snapshot store (file, sqlite, postgres, redis, s3)")
	flags.String("dir", ".refgraph/snapshots", "Directory of the file store")
	flags.String("sqlite-path", ".refgraph/snapshots.db", "Database file of the sqlite store")
	flags.String("postgres-dsn", os.Getenv("REFGRAPH_POSTGRES_DSN"), "Connection string of the postgres store")
	flags.String("redis-addr", "localhost:6379", "Address of the redis store")
	flags.String("redis-password", "", "Password of the redis store")
	flags.Int("redis-db", 0, "Database of the redis store")
	flags.String("prefix", "", "Key prefix of the redis and s3 stores")
	flags.String("s3-bucket", os.Getenv("REFGRAPH_S3_BUCKET"), "Bucket of the s3 store")
	flags.String("s3-region", "", "Region of the s3 store (default us-east-1)")
	flags.String("s3-endpoint", "", "Custom endpoint of the s3 store, e.g. MinIO")
	flags.Bool("s3-path-style", false, "Use path style addressing with the s3 store")
	flags.Duration("ttl", 0, "Expiry of snapshots saved to the redis store (0 keeps them)")
	flags.String("encryption-key", os.Getenv("REFGRAPH_ENCRYPTION_KEY"), "Base64 AES-256 key encrypting stored snapshots")
	flags.StringSlice("redact", nil, "Patterns of property names masked before saving")
}

// storeMiddleware builds the middleware chain requested by the flags.
func storeMiddleware(cmd *cobra.Command) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if patterns, _ := cmd.Flags().GetStringSlice("redact"); len(patterns) > 0 {
		mw, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, fmt.Errorf("invalid --redact pattern: %w", err)
		}
		mws = append(mws, mw)
	}
	if encoded, _ := cmd.Flags().GetString("encryption-key"); encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid --encryption-key: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// openStore builds the store selected by the flags. The returned function releases it.
func openStore(cmd *cobra.Command) (ports.SnapshotStore, func() error, error) {
	mws, err := storeMiddleware(cmd)
	if err != nil {
		return nil, nil, err
	}

	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "file":
		dir, _ := cmd.Flags().GetString("dir")
		return middleware.Chain(file.New(dir), mws...), func() error { return nil }, nil
	case "sqlite":
		path, _ := cmd.Flags().GetString("sqlite-path")
		store, err := sqlite.New(path)
		if err != nil {
			return nil, nil, err
		}
		return middleware.Chain(store, mws...), store.Close, nil
	case "postgres":
		dsn, _ := cmd.Flags().GetString("postgres-dsn")
		store, err := postgres.New(cmd.Context(), dsn)
		if err != nil {
			return nil, nil, err
		}
		return middleware.Chain(store, mws...), store.Close, nil
	case "s3":
		cfg := s3.Config{}
		cfg.Bucket, _ = cmd.Flags().GetString("s3-bucket")
		cfg.Region, _ = cmd.Flags().GetString("s3-region")
		cfg.Endpoint, _ = cmd.Flags().GetString("s3-endpoint")
		cfg.PathStyle, _ = cmd.Flags().GetBool("s3-path-style")
		cfg.Prefix, _ = cmd.Flags().GetString("prefix")
		store, err := s3.New(cmd.Context(), cfg)
		if err != nil {
			return nil, nil, err
		}
		return middleware.Chain(store, mws...), func() error { return nil }, nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		prefix, _ := cmd.Flags().GetString("prefix")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		var opts []redis.Option
		if prefix != "" {
			opts = append(opts, redis.WithPrefix(prefix))
		}
		if ttl > 0 {
			opts = append(opts, redis.WithTTL(ttl))
		}
		store := redis.New(addr, password, db, opts...)
		return middleware.Chain(store, mws...), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", kind)
	}
}
