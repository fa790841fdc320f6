package config

import (
	"os"
	"strings"
	"sync"
)

// dockerHostAlias reaches services on the host machine from inside a container.
const dockerHostAlias = "host.docker.internal"

var (
	inDockerOnce sync.Once
	inDocker     bool
)

// IsRunningInDocker reports whether /.dockerenv exists. Checked once per process.
func IsRunningInDocker() bool {
	inDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		inDocker = err == nil
	})
	return inDocker
}

// ResolveHostForDocker rewrites loopback hosts to host.docker.internal when
// askdb runs in a container, so project connection profiles written for a
// developer laptop still reach databases on the host. Used for both the
// response cache and the project databases.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, containerized bool) string {
	if !containerized {
		return host
	}
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return dockerHostAlias
	}
	return host
}
