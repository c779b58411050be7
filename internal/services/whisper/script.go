package whisper

import (
	"context"
	"log/slog"
	"strings"

	"vidpipe/internal/logging"
	"vidpipe/internal/procexec"
)

// ScriptEngine runs `<python> <script> <video> [language]` and returns stdout.
type ScriptEngine struct {
	python string
	script string
	runner procexec.Runner
	logger *slog.Logger
}

// NewScriptEngine builds the script-backed processor.
func NewScriptEngine(python, script string, runner procexec.Runner, logger *slog.Logger) *ScriptEngine {
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	return &ScriptEngine{
		python: python,
		script: script,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "whisper-script"),
	}
}

// Transcribe runs the helper script. Only stdout is returned; stderr is
// logged at debug level and never parsed.
func (e *ScriptEngine) Transcribe(ctx context.Context, videoPath, language string) ([]byte, error) {
	args := []string{e.script, videoPath}
	if lang := strings.TrimSpace(language); lang != "" {
		args = append(args, lang)
	}
	spec := procexec.Spec{
		Name: e.python,
		Args: args,
		Env:  []string{"PYTHONIOENCODING=utf-8"},
	}
	out, err := e.runner.Run(ctx, spec)
	if stderr := strings.TrimSpace(string(out.Stderr)); stderr != "" {
		logging.WithContext(ctx, e.logger).Debug("transcription script diagnostics",
			logging.String("stderr", stderr),
		)
	}
	if err != nil {
		return nil, toolError("run script", err)
	}
	return out.Stdout, nil
}
