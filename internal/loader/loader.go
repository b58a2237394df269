package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Loader turns one settings file into structured data.
type Loader interface {
	// Extension is the file extension the loader recognises, dot included.
	Extension() string
	// Load reads and decodes the file at path. Missing files surface an
	// error matching fs.ErrNotExist.
	Load(path string) (any, error)
}

type decodeFunc func(data []byte) (any, error)

type fileLoader struct {
	extension string
	decode    decodeFunc
	readFile  func(name string) ([]byte, error)
}

// Option configures a Loader.
type Option func(*fileLoader)

// WithReadFile overrides how file contents are read, primarily for tests.
func WithReadFile(readFile func(name string) ([]byte, error)) Option {
	return func(l *fileLoader) {
		l.readFile = readFile
	}
}

// YAML decodes .yaml files.
func YAML(opts ...Option) Loader {
	return newFileLoader(".yaml", decodeYAML, opts)
}

// JSON decodes .json files.
func JSON(opts ...Option) Loader {
	return newFileLoader(".json", decodeJSON, opts)
}

// TOML decodes .toml files.
func TOML(opts ...Option) Loader {
	return newFileLoader(".toml", decodeTOML, opts)
}

// ForFormat returns the loader registered under format.
func ForFormat(format string, opts ...Option) (Loader, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatYAML:
		return YAML(opts...), nil
	case FormatJSON:
		return JSON(opts...), nil
	case FormatTOML:
		return TOML(opts...), nil
	default:
		return nil, fmt.Errorf("%w %q, expected one of %s", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return slices.Clone(formats)
}

var formats = []string{FormatYAML, FormatJSON, FormatTOML}

func newFileLoader(extension string, decode decodeFunc, opts []Option) Loader {
	l := &fileLoader{
		extension: extension,
		decode:    decode,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *fileLoader) Extension() string {
	return l.extension
}

func (l *fileLoader) Load(path string) (any, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	value, err := l.decode(data)
	if err == nil {
		value, err = Normalize(value)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDecode, path, err)
	}
	return value, nil
}

func decodeYAML(data []byte) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func decodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return value, nil
}

func decodeTOML(data []byte) (any, error) {
	value := make(map[string]any)
	if _, err := toml.Decode(string(data), &value); err != nil {
		return nil, err
	}
	return value, nil
}
