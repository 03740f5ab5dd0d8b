package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

// ErrNoAppLog is returned when the event log is disabled.
var ErrNoAppLog = errors.New("app_log isn't configured")

type Configuration struct {
	configFs  afero.Fs
	configDir string

	Prompt        string `json:"prompt" validate:"required"`
	Color         string `json:"color" validate:"oneof=auto always never"`
	MaxLineLength int    `json:"max_line_length" validate:"gte=1"`
	Syntax        string `json:"syntax" validate:"oneof=posix words"`
	HomeEnv       string `json:"home_env" validate:"required"`
	HistoryFile   string `json:"history_file"`
	AppLog        string `json:"app_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// Dir is the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.configDir
}

func (c *Configuration) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.configDir == "" {
		return path
	}
	return filepath.Join(c.configDir, path)
}

// HistoryPath is the location of the history file, empty if disabled.
func (c *Configuration) HistoryPath() string {
	return c.resolve(c.HistoryFile)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	if c.AppLog == "" {
		return nil, ErrNoAppLog
	}
	return c.fs().OpenFile(c.resolve(c.AppLog), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the application log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	if c.AppLog == "" {
		return nil, ErrNoAppLog
	}
	return c.fs().OpenFile(c.resolve(c.AppLog), os.O_RDONLY, 0600)
}

// Default returns the built in configuration rooted at the working
// directory.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewOsFs()
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
