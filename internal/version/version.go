// Package version exposes the notifier build metadata, stamped at link time:
//
//	go build -ldflags "-X notifier/internal/version.Version=v1.4.0 -X notifier/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Link-time variables.
var (
	Version   = "unknown"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info is the build metadata plus per-process identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once   sync.Once
	cached Info
)

// GetInfo returns the build metadata. The instance id is generated on the
// first call and stays fixed for the life of the process.
func GetInfo() Info {
	once.Do(func() {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown"
		}
		cached = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.NewString(),
			Hostname:   host,
		}
	})
	return cached
}

// String formats version info for CLI display.
func (i Info) String() string {
	return fmt.Sprintf("notifier version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}

// UserAgent is the User-Agent sent to the notify API.
func (i Info) UserAgent() string {
	v := strings.TrimPrefix(i.Version, "v")
	if v == "" {
		v = "unknown"
	}
	return "notifier/" + v
}
