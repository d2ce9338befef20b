package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
)

func TestRunSweepOnce(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	now := time.Now()
	aged := filepath.Join(base, audio.TempPrefix+"abc-1")
	if err := os.Mkdir(aged, 0o755); err != nil {
		t.Fatal(err)
	}
	old := now.Add(-48 * time.Hour)
	if err := os.Chtimes(aged, old, old); err != nil {
		t.Fatal(err)
	}

	env, _, stderr := testEnv(t, WithNow(func() time.Time { return now }))
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := runSweep(cmd, env, base, 0, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(aged); !os.IsNotExist(err) {
		t.Error("the aged job directory must be removed")
	}
	if !strings.Contains(stderr.String(), "Removed 1 directories") {
		t.Errorf("expected a summary line on stderr:\n%s", stderr.String())
	}
}

func TestRunConfigShowsEffectiveConfig(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(t)
	if err := runConfig(env, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"strategy = 'standard'", "language = 'auto'", "[fusion]", "overlap_threshold = 0.6"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered config missing %q:\n%s", want, out)
		}
	}
}
