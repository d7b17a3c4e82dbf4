package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"soundsprite/internal/manifest"
	"soundsprite/internal/options"
)

func stubCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "ENCODER_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func testOptions(dir string) options.EncoderOptions {
	cfg := options.Resolve(options.Defaults(), options.Options{}, filepath.Join(dir, "sfx"))
	return cfg.Encoder
}

func TestArgsIncludeEncoderFlags(t *testing.T) {
	opts := testOptions("/out")
	opts.Path = "/base"
	opts.Autoplay = "intro"
	opts.Loop = []string{"ambience", "rain"}
	opts.Gap = 0.5
	opts.Extra = map[string]string{"log": "debug", "-zeta": "1"}

	args := Args(opts)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--output " + filepath.Join("/out", "sfx", "sfx"),
		"--path /base",
		"--export ogg,m4a,mp3,ac3",
		"--format jukebox",
		"--autoplay intro",
		"--loop ambience --loop rain",
		"--gap 0.5",
		"--bitrate 128",
		"--vbr -1",
		"--vbr:vorbis -1",
		"--samplerate 44100",
		"--channels 1",
		"--ignorerounding 0",
		"--zeta 1 --log debug",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected args to contain %q, got %v", want, args)
		}
	}
	if strings.Contains(joined, "--rawparts") {
		t.Fatalf("expected unset rawparts to be omitted, got %v", args)
	}
}

func TestCLIEncodeReadsManifest(t *testing.T) {
	var captured []string
	stubCommand(t, "success", &captured)

	dir := t.TempDir()
	opts := testOptions(dir)
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := []string{filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.wav")}

	doc, err := NewCLI(WithBinary("/opt/audiosprite")).Encode(context.Background(), files, opts)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	resources, ok, err := doc.Resources()
	if err != nil || !ok {
		t.Fatalf("expected resources, got ok=%v err=%v", ok, err)
	}
	if len(resources) != 1 || resources[0] != opts.Output+".ogg" {
		t.Fatalf("unexpected resources: %v", resources)
	}
	if got := captured[len(captured)-2:]; got[0] != files[0] || got[1] != files[1] {
		t.Fatalf("expected input files after flags, got %v", captured)
	}
}

func TestCLIEncodeRelativeToEncoderPath(t *testing.T) {
	stubCommand(t, "success", nil)

	dir := t.TempDir()
	site := filepath.Join(dir, "site")
	outputFolder := filepath.Join(dir, "public", "sfx")
	if err := os.MkdirAll(outputFolder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := options.Resolve(options.Defaults(), options.Options{Encoder: options.EncoderOverrides{Path: &site}}, outputFolder)

	if _, err := NewCLI().Encode(context.Background(), []string{filepath.Join(dir, "a.wav")}, cfg.Encoder); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputFolder, "sfx.json")); err != nil {
		t.Fatalf("expected manifest inside the output folder: %v", err)
	}
}

func TestCLIEncodeNonZeroExit(t *testing.T) {
	stubCommand(t, "fail", nil)

	dir := t.TempDir()
	_, err := NewCLI().Encode(context.Background(), []string{filepath.Join(dir, "a.wav")}, testOptions(dir))
	if !errors.Is(err, ErrEncoder) {
		t.Fatalf("expected ErrEncoder, got %v", err)
	}
	if !strings.Contains(err.Error(), "ffmpeg missing") {
		t.Fatalf("expected encoder output in error, got %v", err)
	}
}

func TestCLIEncodeInvalidManifest(t *testing.T) {
	stubCommand(t, "garbage", nil)

	dir := t.TempDir()
	opts := testOptions(dir)
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err := NewCLI().Encode(context.Background(), []string{filepath.Join(dir, "a.wav")}, opts)
	if !errors.Is(err, ErrEncoder) {
		t.Fatalf("expected ErrEncoder, got %v", err)
	}
}

func TestCLIEncodeMissingManifest(t *testing.T) {
	stubCommand(t, "silent", nil)

	dir := t.TempDir()
	_, err := NewCLI().Encode(context.Background(), []string{filepath.Join(dir, "a.wav")}, testOptions(dir))
	if !errors.Is(err, ErrEncoder) {
		t.Fatalf("expected ErrEncoder, got %v", err)
	}
}

func TestCLIEncodeRequiresFiles(t *testing.T) {
	if _, err := NewCLI().Encode(context.Background(), nil, testOptions(t.TempDir())); !errors.Is(err, ErrEncoder) {
		t.Fatalf("expected ErrEncoder for empty input, got %v", err)
	}
}

func TestRequireResources(t *testing.T) {
	ok, err := manifest.Parse([]byte(`{"resources":["a.ogg"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := RequireResources(ok); err != nil {
		t.Fatalf("expected manifest to pass, got %v", err)
	}

	for _, raw := range []string{`{"spritemap":{}}`, `{"resources":"a.ogg"}`} {
		doc, err := manifest.Parse([]byte(raw))
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		if err := RequireResources(doc); !errors.Is(err, ErrMalformedManifest) {
			t.Fatalf("expected ErrMalformedManifest for %s, got %v", raw, err)
		}
	}
	if err := RequireResources(nil); !errors.Is(err, ErrMalformedManifest) {
		t.Fatalf("expected ErrMalformedManifest for nil manifest, got %v", err)
	}
}

func TestFuncAdapter(t *testing.T) {
	var enc Encoder = Func(func(_ context.Context, files []string, _ options.EncoderOptions) (*manifest.Document, error) {
		return manifest.Parse([]byte(fmt.Sprintf(`{"resources":[],"count":%d}`, len(files))))
	})
	doc, err := enc.Encode(context.Background(), []string{"a", "b"}, options.EncoderOptions{})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if raw, _ := doc.Get("count"); string(raw) != "2" {
		t.Fatalf("unexpected count: %s", raw)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	flag := func(name string) string {
		for i := 0; i+1 < len(args); i++ {
			if args[i] == name {
				return args[i+1]
			}
		}
		return ""
	}
	manifestPath := manifest.RawManifestPath(flag("--path"), flag("--output"))

	switch os.Getenv("ENCODER_HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "ffmpeg missing")
		os.Exit(2)
	case "garbage":
		_ = os.WriteFile(manifestPath, []byte("not json"), 0o644)
	case "silent":
	default:
		payload := fmt.Sprintf(`{"resources":[%q],"spritemap":{}}`, flag("--output")+".ogg")
		if err := os.WriteFile(manifestPath, []byte(payload), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	os.Exit(0)
}
