package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidpipe/internal/artifact"
	"vidpipe/internal/pipeline"
	"vidpipe/internal/testsupport"
)

const cliTranscript = `{"segments":[{"start":0.0,"end":2.0,"text":"hello"},{"start":2.5,"end":4.0,"text":"world"}]}`

type cliTestEnv struct {
	baseDir    string
	configPath string
	media      *testsupport.FakeMedia
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
artifact_dir = %q
log_dir = %q

[transcription]
engine = "script"
python = "python3"
script = %q

[translation]
api_key = ""

[anonymization]
python = "python3"
script = %q

[logging]
level = "error"
`,
		filepath.Join(base, "uploads"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "scripts", "transcribe.py"),
		filepath.Join(base, "scripts", "blur_faces.py"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		media:      &testsupport.FakeMedia{Transcript: cliTranscript},
	}
}

func (e *cliTestEnv) writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := buildRootCommand(&commandContext{runner: env.media})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestStageAndListArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeSource(t, "clip.mp4", "clip")

	out, err := runCLI(t, env, "stage", "--json", source)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	var staged artifact.Artifact
	if err := json.Unmarshal([]byte(out), &staged); err != nil {
		t.Fatalf("decode stage output %q: %v", out, err)
	}
	if staged.Kind != artifact.KindOriginal || !strings.HasSuffix(staged.FileName, ".mp4") {
		t.Fatalf("unexpected staged artifact %+v", staged)
	}

	out, err = runCLI(t, env, "artifacts", "list", "--json")
	if err != nil {
		t.Fatalf("artifacts list: %v", err)
	}
	var listed []artifact.Artifact
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list output: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != staged.ID {
		t.Fatalf("unexpected listing %+v", listed)
	}

	out, err = runCLI(t, env, "artifacts", "list")
	if err != nil {
		t.Fatalf("artifacts list table: %v", err)
	}
	requireContains(t, out, staged.ID)
	requireContains(t, out, "original")
}

func TestRunTranscribeAndBurnIn(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeSource(t, "clip.mp4", "clip")

	out, err := runCLI(t, env, "run", "--input", source, "--stages", "transcribe,burn_in", "--json")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var result pipeline.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode run output: %v", err)
	}
	if result.Final.Kind != artifact.KindFinalVideo || result.FinalURL == "" {
		t.Fatalf("unexpected final artifact %+v", result.Final)
	}
	if result.Transcript != "hello world" {
		t.Fatalf("unexpected transcript %q", result.Transcript)
	}
	data, err := os.ReadFile(result.Final.Path)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(data) != "subbed clip" {
		t.Fatalf("unexpected final content %q", data)
	}
}

func TestRunFailureReportsLastGood(t *testing.T) {
	env := setupCLITestEnv(t)
	env.media.FailBurn = true
	source := env.writeSource(t, "clip.mp4", "clip")

	out, err := runCLI(t, env, "run", "--input", source, "--stages", "anonymize,transcribe,burn_in")
	if err == nil {
		t.Fatal("expected run to fail")
	}
	requireContains(t, err.Error(), "burn_in_failed")
	requireContains(t, out, "Last good artifact:")
	requireContains(t, out, "failed")
}

func TestRunMetricsTextfile(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeSource(t, "clip.mp4", "clip")
	metricsPath := filepath.Join(env.baseDir, "vidpipe.prom")

	if _, err := runCLI(t, env, "run", "--input", source, "--stages", "transcribe,export:vtt", "--metrics-textfile", metricsPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(data), "vidpipe_runs_total")
}

func TestRunRequiresSource(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := runCLI(t, env, "run"); err == nil {
		t.Fatal("expected error without a source")
	}
	if _, err := runCLI(t, env, "run", "--stages", "translate", "abc"); err == nil {
		t.Fatal("expected error for translate without a target language")
	}
}

func TestArtifactsExport(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeSource(t, "clip.mp4", "clip")
	out, err := runCLI(t, env, "stage", "--json", source)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	var staged artifact.Artifact
	if err := json.Unmarshal([]byte(out), &staged); err != nil {
		t.Fatalf("decode stage output: %v", err)
	}

	destDir := filepath.Join(env.baseDir, "exports")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, env, "artifacts", "export", staged.ID, destDir); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(destDir, staged.FileName))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "clip" {
		t.Fatalf("unexpected export content %q", data)
	}
	if _, err := runCLI(t, env, "artifacts", "export", staged.ID, destDir); err == nil {
		t.Fatal("expected second export to refuse overwrite")
	}
}

func TestArtifactsPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeSource(t, "clip.mp4", "clip")
	if _, err := runCLI(t, env, "stage", source); err != nil {
		t.Fatalf("stage: %v", err)
	}

	out, err := runCLI(t, env, "artifacts", "prune", "--older-than", "0s")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Removed 1 artifact(s)")

	out, err = runCLI(t, env, "artifacts", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "No artifacts stored")
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	t.Setenv("OPENAI_API_KEY", "sk-secret")
	out, err = runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[translation]")
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("config show leaked the api key: %s", out)
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestDoctorWithStubbedTools(t *testing.T) {
	env := setupCLITestEnv(t)
	binDir := filepath.Join(env.baseDir, "bin")
	scriptsDir := filepath.Join(env.baseDir, "scripts")
	for _, dir := range []string{binDir, scriptsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"ffmpeg", "ffprobe", "python3"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"transcribe.py", "blur_faces.py"} {
		if err := os.WriteFile(filepath.Join(scriptsDir, name), []byte("# stub\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	out, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[WARN] no credentials")
	requireContains(t, out, "All required checks passed")
}

func TestDoctorReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", filepath.Join(env.baseDir, "empty-bin"))

	out, err := runCLI(t, env, "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail without tools\n%s", out)
	}
	requireContains(t, out, "Missing dependencies:")
}

func TestLogsFiltersByRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	logDir := filepath.Join(env.baseDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{"msg":"stage started","request_id":"req-a","stage":"transcribe"}
{"msg":"stage started","request_id":"req-b","stage":"transcribe"}
{"msg":"pipeline completed","request_id":"req-a"}
`
	if err := os.WriteFile(filepath.Join(logDir, "vidpipe.log"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, env, "logs", "--request", "req-a")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "req-b") {
		t.Fatalf("unexpected foreign request in %q", out)
	}
	requireContains(t, out, "pipeline completed")
}
