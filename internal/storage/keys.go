package storage

import (
	"path/filepath"
	"regexp"
	"strings"
)

var separatorPattern = regexp.MustCompile(`[-_](\S)`)

// KeyFromFilename derives a settings key from a file name: the base name
// without its extension, with every "-x" or "_x" turned into "X".
//
//	array-options.yaml -> arrayOptions
//	env_options.yaml   -> envOptions
func KeyFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return separatorPattern.ReplaceAllStringFunc(base, func(match string) string {
		return strings.ToUpper(match[1:])
	})
}
