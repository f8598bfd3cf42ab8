package main

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osavchenko/ecoroute/internal/testutil"
)

func Test_run(t *testing.T) {
	rc := testutil.StartRedisContainer(t)
	t.Cleanup(rc.Terminate)
	mc := testutil.StartMongoContainer(t)
	t.Cleanup(mc.Terminate)

	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	t.Run("stop with signal", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err = run(ctx, os.Getenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--mongo-uri", mc.URI,
			"--redis", rc.Addr,
			"--secret-key", "secret",
			"--mapbox-token", "pk.test",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("stop with srv error", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		// Try to run without secret key. Must fail
		err := run(ctx, os.Getenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--mongo-uri", mc.URI,
			"--redis", rc.Addr,
		})

		require.Error(t, err, "on incorrect stop should return error")
	})
}
