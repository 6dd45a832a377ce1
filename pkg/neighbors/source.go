package neighbors

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	osutils "github.com/projectdiscovery/utils/os"
)

// Source supplies raw neighbor-cache text. Implementations wrap the
// platform's query surface so the discovery pipeline stays testable.
type Source interface {
	Dump(ctx context.Context) (string, error)
}

const procNetARP = "/proc/net/arp"

// dumpTimeout bounds the arp subprocess; the table dump is local and fast.
const dumpTimeout = 5 * time.Second

type systemSource struct{}

// NewSystemSource returns the platform neighbor-cache source: /proc/net/arp
// on Linux with an `arp -a` fallback, `arp -a` everywhere else.
func NewSystemSource() Source {
	return &systemSource{}
}

func (s *systemSource) Dump(ctx context.Context) (string, error) {
	if osutils.IsLinux() {
		if data, err := os.ReadFile(procNetARP); err == nil {
			return string(data), nil
		}
		// procfs can be unreadable in containers and hardened kernels,
		// fall through to the binary
	}

	ctx, cancel := context.WithTimeout(ctx, dumpTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		return "", fmt.Errorf("failed to execute arp -a: %w", err)
	}
	return string(output), nil
}
