package config

const (
	EngineWhisperCpp = "whispercpp"
	EngineWaaS       = "waas"

	defaultEngine               = EngineWhisperCpp
	defaultFFmpegPath           = "ffmpeg"
	defaultWhisperCppExecutable = "whispercpp"
	defaultWhisperCppModel      = "base"
	defaultWhisperCppLanguage   = "en"
	defaultWhisperCppAutoEncode = false
	defaultWaaSHost             = "http://localhost:8080"
	defaultWaaSRetry            = 3
	defaultWaaSTimeout          = 3600
	defaultWaaSRequestTimeout   = 30
	defaultWaaSFallbackLanguage = "en"
	defaultWaaSAutoEncode       = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine:     defaultEngine,
		FFmpegPath: defaultFFmpegPath,
		WhisperCpp: WhisperCpp{
			Executable:      defaultWhisperCppExecutable,
			Model:           defaultWhisperCppModel,
			DefaultLanguage: defaultWhisperCppLanguage,
			AutoEncode:      defaultWhisperCppAutoEncode,
		},
		WaaS: WaaS{
			Host:             defaultWaaSHost,
			Retry:            defaultWaaSRetry,
			Timeout:          defaultWaaSTimeout,
			RequestTimeout:   defaultWaaSRequestTimeout,
			FallbackLanguage: defaultWaaSFallbackLanguage,
			AutoEncode:       defaultWaaSAutoEncode,
		},
	}
}
