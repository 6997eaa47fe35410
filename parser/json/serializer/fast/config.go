package fast

import (
	"github.com/bytedance/sonic"
	"github.com/goccy/go-json"
)

type Config struct {
	SonicConfig sonic.Config
	GoJSON      GoJSONConfig
}

type GoJSONConfig struct {
	EncodeOptions []json.EncodeOptionFunc
	DecodeOptions []json.DecodeOptionFunc
}

func DefaultConfig() Config {
	return Config{
		SonicConfig: sonic.Config{
			// Payloads outlive the encode call (broadcasts are handed to the
			// HTTP client), so don't alias input strings.
			CopyString: true,
			// The encoded payload goes over the wire. Keep it small.
			CompactMarshaler: true,
			// Security. Definitely enable this.
			EscapeHTML: true,
			SortMapKeys: false,
		},
		GoJSON: GoJSONConfig{
			EncodeOptions: []json.EncodeOptionFunc{
				json.UnorderedMap(),
			},
		},
	}
}
