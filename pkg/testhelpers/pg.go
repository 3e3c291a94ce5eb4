package testhelpers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnectionString string
}

type CreatePostgresContainerOpts struct {
	// CreateSchema runs every testdata/*.sql file in name order.
	CreateSchema bool
	// ExtraScripts run after the schema, e.g. per-test fixtures.
	ExtraScripts []string
}

// TestdataDir is the repository's top-level testdata directory, independent of
// the package a test runs from.
func TestdataDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata")
}

func CreatePostgresContainer(ctx context.Context, opts CreatePostgresContainerOpts) (*PostgresContainer, error) {
	initScripts := []string{}

	if opts.CreateSchema {
		schemaFiles, err := filepath.Glob(filepath.Join(TestdataDir(), "*.sql"))
		if err != nil {
			return nil, err
		}
		sort.Strings(schemaFiles)
		initScripts = append(initScripts, schemaFiles...)
	}

	for _, script := range opts.ExtraScripts {
		if _, err := os.Stat(script); err != nil {
			return nil, fmt.Errorf("init script %s: %w", script, err)
		}
		initScripts = append(initScripts, script)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(initScripts...),
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		if pgContainer == nil {
			return nil, fmt.Errorf("container failed: %w", err)
		}

		logReader, logErr := pgContainer.Logs(ctx)
		if logErr != nil {
			return nil, fmt.Errorf("container failed: %v (failed to get logs: %v)", err, logErr)
		}
		defer logReader.Close()

		logs := new(bytes.Buffer)
		if _, readErr := logs.ReadFrom(logReader); readErr != nil {
			return nil, fmt.Errorf("container failed: %v (failed to read logs: %v)", err, readErr)
		}
		return nil, fmt.Errorf("container failed: %v\nLogs:\n%s", err, logs.String())
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		PostgresContainer: pgContainer,
		ConnectionString:  connStr,
	}, nil
}
