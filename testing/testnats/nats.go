package testnats

import (
	"context"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	sharedContainer *NATSContainer
	sharedOnce      sync.Once
)

type NATSContainer struct {
	Container testcontainers.Container
	URL       string
}

// SetupSharedNATS starts one NATS container per test binary and skips the
// calling test when no container runtime is available.
//
// Usage:
//
//	func TestPublisher(t *testing.T) {
//	    natsContainer := testnats.SetupSharedNATS(t)
//	    defer natsContainer.Cleanup(t)
//
//	    t.Run("Publish", func(t *testing.T) {
//	        nc := natsContainer.Connect(t)
//	        // ...
//	    })
//	}
func SetupSharedNATS(t *testing.T) *NATSContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		}

		natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		require.NoError(t, err)

		host, err := natsContainer.Host(ctx)
		require.NoError(t, err)

		port, err := natsContainer.MappedPort(ctx, "4222")
		require.NoError(t, err)

		sharedContainer = &NATSContainer{
			Container: natsContainer,
			URL:       "nats://" + host + ":" + port.Port(),
		}
	})

	require.NotNil(t, sharedContainer, "nats container failed to start")
	return sharedContainer
}

func (nc *NATSContainer) Cleanup(t *testing.T) {
	t.Helper()

	if nc.Container != nil {
		if err := nc.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

func (nc *NATSContainer) Connect(t *testing.T) *nats.Conn {
	t.Helper()

	conn, err := nats.Connect(nc.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}
