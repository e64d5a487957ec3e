// Package configx overlays koanf-tagged config structs with values from an
// optional YAML file and prefixed environment variables.
package configx

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dmitrijs2005/forttask/internal/errors"
)

// Source names where values come from. Sections lists the nested struct
// keys, so that with prefix APP_ the variable APP_LOG_LEVEL maps to
// log.level.
type Source struct {
	File      string
	EnvPrefix string
	Sections  []string
}

// Load overlays target with the file (if any) and then the environment.
// Keys absent from both keep their current values.
func Load(target any, src Source) error {
	k := koanf.New(".")

	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil {
			return errors.Wrapf(err, "read config file %s", src.File)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: src.EnvPrefix,
		TransformFunc: func(key, v string) (string, any) {
			return EnvKey(strings.TrimPrefix(key, src.EnvPrefix), src.Sections), v
		},
	}), nil); err != nil {
		return errors.Wrap(err, "load env variables")
	}

	if err := k.UnmarshalWithConf("", target, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           target,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return errors.Wrap(err, "decode config")
	}
	return nil
}

// EnvKey turns SERVER_URL into server_url and, for section "log",
// LOG_LEVEL into log.level.
func EnvKey(raw string, sections []string) string {
	key := strings.ToLower(raw)
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok {
			return s + "." + rest
		}
	}
	return key
}
