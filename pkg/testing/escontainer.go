package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultESImage = "docker.elastic.co/elasticsearch/elasticsearch:8.12.0"

// ESContainer is a single-node Elasticsearch with security disabled.
type ESContainer struct {
	Container testcontainers.Container
	Address   string
}

func (c *ESContainer) Addresses() []string {
	return []string{c.Address}
}

// NewESContainer starts a container for the test and terminates it when the
// test ends. ES_TEST_IMAGE overrides the image.
func NewESContainer(ctx context.Context, tb testing.TB) *ESContainer {
	tb.Helper()

	esContainer, err := elasticsearch.Run(ctx,
		imageFromEnv("ES_TEST_IMAGE", defaultESImage),
		elasticsearch.WithPassword(""),
		testcontainers.WithEnv(map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_cluster/health?wait_for_status=yellow").
				WithPort("9200").
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("failed to start elasticsearch container: %v", err)
	}

	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(esContainer); err != nil {
			tb.Logf("failed to terminate elasticsearch container: %v", err)
		}
	})

	host, err := esContainer.Host(ctx)
	if err != nil {
		tb.Fatalf("failed to get elasticsearch host: %v", err)
	}
	port, err := esContainer.MappedPort(ctx, "9200")
	if err != nil {
		tb.Fatalf("failed to get elasticsearch port: %v", err)
	}

	return &ESContainer{
		Container: esContainer,
		Address:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}
