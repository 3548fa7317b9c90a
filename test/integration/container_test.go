package integration

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const postgresImage = "postgres:16-alpine"

// startPostgresContainer starts a throwaway postgres through the docker CLI on
// a host port docker picks, and waits until it accepts connections.
func startPostgresContainer(ctx context.Context) (string, func(), error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return "", nil, errNoDatabase
	}

	name := "hms-it-" + uuid.NewString()[:8]
	if out, err := docker(ctx, "run", "-d", "--rm", "--name", name,
		"-p", "127.0.0.1::5432",
		"-e", "POSTGRES_USER=hms",
		"-e", "POSTGRES_PASSWORD=hms",
		"-e", "POSTGRES_DB=hms_test",
		postgresImage,
	); err != nil {
		return "", nil, fmt.Errorf("docker run: %w: %s", err, out)
	}
	stop := func() { _, _ = docker(context.Background(), "rm", "-f", name) }

	mapped, err := docker(ctx, "port", name, "5432/tcp")
	if err != nil {
		stop()
		return "", nil, fmt.Errorf("docker port: %w: %s", err, mapped)
	}
	// docker may print one mapping per address family
	addr := strings.SplitN(strings.TrimSpace(mapped), "\n", 2)[0]
	if _, _, err := net.SplitHostPort(addr); err != nil {
		stop()
		return "", nil, fmt.Errorf("unexpected port mapping %q", mapped)
	}

	url := fmt.Sprintf("postgres://hms:hms@%s/hms_test?sslmode=disable", addr)
	if err := awaitReady(ctx, url, 30*time.Second); err != nil {
		stop()
		return "", nil, err
	}
	return url, stop, nil
}

func docker(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	return string(out), err
}

func awaitReady(ctx context.Context, url string, within time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, within)
	defer cancel()

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	var lastErr error
	for {
		conn, err := pgx.Connect(ctx, url)
		if err == nil {
			return conn.Close(ctx)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %s: %w", within, lastErr)
		case <-tick.C:
		}
	}
}
