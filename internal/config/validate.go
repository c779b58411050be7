package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.ArtifactDir) == "" {
		return errors.New("paths.artifact_dir must be set")
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Anonymization.Python) == "" {
		return errors.New("anonymization.python must be set")
	}
	if strings.TrimSpace(c.Anonymization.Script) == "" {
		return errors.New("anonymization.script must be set")
	}
	if c.Pipeline.StageTimeoutSeconds < 0 {
		return errors.New("pipeline.stage_timeout_seconds must be >= 0 (0 disables the deadline)")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Engine {
	case EngineScript:
		if strings.TrimSpace(c.Transcription.Python) == "" {
			return errors.New("transcription.python must be set when transcription.engine is \"script\"")
		}
		if strings.TrimSpace(c.Transcription.Script) == "" {
			return errors.New("transcription.script must be set when transcription.engine is \"script\"")
		}
	case EngineWhisperX:
		switch c.Transcription.WhisperXVADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("transcription.whisperx_vad_method: unsupported value %q", c.Transcription.WhisperXVADMethod)
		}
	default:
		return fmt.Errorf("transcription.engine: unsupported value %q (want %q or %q)", c.Transcription.Engine, EngineScript, EngineWhisperX)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	return ensurePositiveMap(map[string]int{
		"translation.concurrency":     c.Translation.Concurrency,
		"translation.timeout_seconds": c.Translation.TimeoutSeconds,
		"translation.retry_attempts":  c.Translation.RetryAttempts,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
