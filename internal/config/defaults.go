package config

const (
	defaultConfigPath                = "~/.config/vidpipe/config.toml"
	defaultArtifactDir               = "~/.local/share/vidpipe/uploads"
	defaultLogDir                    = "~/.local/share/vidpipe/logs"
	defaultPublicBaseURL             = "/uploads"
	defaultTranscriptionEngine       = "script"
	defaultPython                    = ".venv/bin/python3"
	defaultTranscriptionScript       = "scripts/transcribe_whisper.py"
	defaultAnonymizationScript       = "scripts/blur_faces.py"
	defaultWhisperXModel             = "large-v3-turbo"
	defaultWhisperXVADMethod         = "silero"
	defaultTranslationBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultTranslationModel          = "gpt-4o-mini"
	defaultSourceLanguage            = "en"
	defaultTranslationConcurrency    = 4
	defaultTranslationTimeoutSeconds = 60
	defaultTranslationRetryAttempts  = 1
	defaultFFmpegBinary              = "ffmpeg"
	defaultFFprobeBinary             = "ffprobe"
	defaultStageTimeoutSeconds       = 1800
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"

	redacted = "********"
)

// EngineScript and EngineWhisperX name the supported transcription engines.
const (
	EngineScript   = "script"
	EngineWhisperX = "whisperx"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArtifactDir:   defaultArtifactDir,
			LogDir:        defaultLogDir,
			PublicBaseURL: defaultPublicBaseURL,
		},
		Transcription: Transcription{
			Engine:            defaultTranscriptionEngine,
			Python:            defaultPython,
			Script:            defaultTranscriptionScript,
			WhisperXModel:     defaultWhisperXModel,
			WhisperXVADMethod: defaultWhisperXVADMethod,
		},
		Translation: Translation{
			BaseURL:        defaultTranslationBaseURL,
			Model:          defaultTranslationModel,
			SourceLanguage: defaultSourceLanguage,
			Concurrency:    defaultTranslationConcurrency,
			TimeoutSeconds: defaultTranslationTimeoutSeconds,
			RetryAttempts:  defaultTranslationRetryAttempts,
		},
		Anonymization: Anonymization{
			Python: defaultPython,
			Script: defaultAnonymizationScript,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Pipeline: Pipeline{
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
