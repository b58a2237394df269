// Package loader decodes settings files into plain Go data (records as
// map[string]any, sequences as []any, scalars) ready for the resolver. YAML
// is the default format; JSON and TOML are available through ForFormat.
package loader
