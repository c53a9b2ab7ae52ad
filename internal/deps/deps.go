// Package deps verifies the external binaries flacpress relies on.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"flacpress/internal/config"
	"flacpress/internal/services"
)

// Requirement defines an external dependency flacpress relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// Tooling lists the binaries a conversion run needs.
func Tooling(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FLAC encoder",
			Command:     cfg.Tools.FlacBinary,
			Description: "Encodes raw wav tracks into tagged FLAC files",
		},
		{
			Name:        "7-Zip archiver",
			Command:     cfg.Tools.SevenZipBinary,
			Description: "Archives original rip directories with integrity testing",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Verify confirms every required tool is invocable, returning a
// configuration error naming each missing binary otherwise. The batch
// runner calls this before any file is touched.
func Verify(cfg *config.Config) error {
	var missing []string
	for _, status := range CheckBinaries(Tooling(cfg)) {
		if !status.Available {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "verify tooling",
			strings.Join(missing, "; "), nil)
	}
	return nil
}
