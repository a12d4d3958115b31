package config

const (
	defaultProjectRoot = "."
	defaultStateDir    = ".assetpress"
	defaultFormats     = "gzip;brotli"
	defaultInclude     = "**/*.js;**/*.mjs;**/*.css;**/*.html;**/*.htm;**/*.svg;**/*.json;**/*.xml;**/*.txt;**/*.wasm;**/*.map"
	defaultGzipLevel   = 9
	defaultBrotliLevel = 11
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// OutputRootEnv supplies the output root when configuration leaves it empty.
const OutputRootEnv = "ASSETPRESS_OUTPUT_ROOT"

// Default returns a Config populated with repository defaults. Workers stays
// zero here and resolves to the CPU count during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectRoot: defaultProjectRoot,
			StateDir:    defaultStateDir,
		},
		Compression: Compression{
			Formats:     defaultFormats,
			Include:     defaultInclude,
			GzipLevel:   defaultGzipLevel,
			BrotliLevel: defaultBrotliLevel,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			WriteFile: true,
		},
	}
}
