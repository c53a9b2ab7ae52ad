package config

const (
	defaultLogDir          = "~/.local/share/flacpress/logs"
	defaultHistoryDB       = "~/.local/share/flacpress/history.db"
	defaultFlacBinary      = "flac"
	defaultSevenZipBinary  = "7z"
	defaultFlacCompression = 8
	defaultFlacVerify      = true
	defaultArchiveLevel    = 9
	defaultArchiveSolid    = true
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Tools: Tools{
			FlacBinary:     defaultFlacBinary,
			SevenZipBinary: defaultSevenZipBinary,
		},
		Encoder: Encoder{
			CompressionLevel: defaultFlacCompression,
			Verify:           defaultFlacVerify,
		},
		Archiver: Archiver{
			CompressionLevel: defaultArchiveLevel,
			Solid:            defaultArchiveSolid,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
