package testutil

import (
	"context"
	"net"
	"os/exec"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/osavchenko/ecoroute/internal/repository/mongostore"
	"github.com/osavchenko/ecoroute/internal/repository/redisstore"
)

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

// Fail fast if docker is not available, testcontainers error messages are cryptic
func requireDocker(t *testing.T) {
	t.Helper()

	cmd := exec.Command("docker", "info", "--format", "{{.ServerVersion}}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("test failed: docker rootless not available or not running. Err:%s", out)
	}
}

type RedisContainer struct {
	Addr      string
	Client    *redis.Client
	Terminate func()
}

// Start container with redis
// Stop if error happened, so you may be sure container started ok
// Should be stopped when tests stopped
func StartRedisContainer(t *testing.T) RedisContainer {
	t.Helper()

	requireDocker(t)

	container, err := tcredis.Run(t.Context(), "redis:7-alpine")
	require.NoError(t, err, "Error happened when starting container with redis, deal with it please")

	endpoint, err := container.Endpoint(t.Context(), "")
	require.NoError(t, err, "Error happened when getting endpoint from container with redis")
	t.Logf("Container with redis started, addr=%v", endpoint)

	client, err := redisstore.Connect(t.Context(), endpoint, "", 0)
	require.NoError(t, err, "Error happened when connecting to redis")

	return RedisContainer{
		Addr:   endpoint,
		Client: client,
		Terminate: func() {
			_ = client.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type MongoContainer struct {
	URI       string
	Client    *mongo.Client
	Terminate func()
}

// Start container with mongo
// Should be stopped when tests stopped
func StartMongoContainer(t *testing.T) MongoContainer {
	t.Helper()

	requireDocker(t)

	container, err := tcmongodb.Run(t.Context(), "mongo:7")
	require.NoError(t, err, "Error happened when starting container with mongo, deal with it please")

	uri, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "Error happened when getting connection string from container with mongo")
	t.Logf("Container with mongo started, URI=%v", uri)

	client, err := mongostore.Connect(t.Context(), uri)
	require.NoError(t, err, "Error happened when connecting to mongo")

	return MongoContainer{
		URI:    uri,
		Client: client,
		Terminate: func() {
			_ = client.Disconnect(context.Background())
			testcontainers.CleanupContainer(t, container)
		},
	}
}
