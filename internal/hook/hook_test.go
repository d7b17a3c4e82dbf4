package hook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"

	"soundsprite/internal/manifest"
)

func stubCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HOOK_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func sampleDoc(t *testing.T) *manifest.Document {
	t.Helper()
	doc, err := manifest.Parse([]byte(`{"resources":["sfx.ogg"],"spritemap":{}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestParse(t *testing.T) {
	if Parse("   ", nil) != nil {
		t.Fatal("expected nil command for blank line")
	}
	cmd := Parse("node scripts/rewrite.js --pretty", nil)
	if cmd == nil || len(cmd.Args) != 3 || cmd.Args[0] != "node" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestRunReplacesManifest(t *testing.T) {
	stubCommand(t, "echo")

	cmd := Parse("rewrite", nil)
	fn := cmd.Func(context.Background())
	out, err := fn(sampleDoc(t), "/out/sfx/sfx.json", []string{"/out/sfx/sfx.ogg"})
	if err != nil {
		t.Fatalf("transform returned error: %v", err)
	}
	raw, ok := out.Get("manifestPath")
	if !ok || string(raw) != `"/out/sfx/sfx.json"` {
		t.Fatalf("expected hook to see manifest path, got %s", raw)
	}
	raw, ok = out.Get("original")
	if !ok || string(raw) != `["/out/sfx/sfx.ogg"]` {
		t.Fatalf("expected hook to see original resources, got %s", raw)
	}
	if !out.Has("resources") {
		t.Fatal("expected manifest fields to be passed through")
	}
}

func TestRunFailures(t *testing.T) {
	for _, mode := range []string{"fail", "garbage"} {
		t.Run(mode, func(t *testing.T) {
			stubCommand(t, mode)
			_, err := Parse("rewrite", nil).Run(context.Background(), sampleDoc(t), "/out/sfx/sfx.json", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if mode == "fail" && !strings.Contains(err.Error(), "hook exploded") {
				t.Fatalf("expected stderr in error, got %v", err)
			}
		})
	}
}

func TestReconcileWrapsHookFailure(t *testing.T) {
	stubCommand(t, "fail")

	_, err := manifest.Reconcile(manifest.Input{
		EncoderOutput: "/out/sfx/sfx",
		Manifest:      sampleDoc(t),
		Options:       manifest.Options{Transform: Parse("rewrite", nil).Func(context.Background())},
	})
	if !errors.Is(err, manifest.ErrTransformCallback) {
		t.Fatalf("expected ErrTransformCallback, got %v", err)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HOOK_HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "hook exploded")
		os.Exit(3)
	case "garbage":
		fmt.Fprint(os.Stdout, "[1,2,3]")
	default:
		data, _ := io.ReadAll(os.Stdin)
		var req struct {
			Manifest          map[string]any `json:"manifest"`
			ManifestPath      string         `json:"manifestPath"`
			OriginalResources []string       `json:"originalResources"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		req.Manifest["manifestPath"] = req.ManifestPath
		req.Manifest["original"] = req.OriginalResources
		_ = json.NewEncoder(os.Stdout).Encode(req.Manifest)
	}
	os.Exit(0)
}
