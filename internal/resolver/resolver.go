package resolver

type mergeResolver struct{}

// New creates a Resolver that deep-merges the common section and the
// environment section of record definitions.
func New() Resolver {
	return &mergeResolver{}
}

func (r *mergeResolver) Resolve(raw any, environment string) any {
	return Classify(raw).Resolve(environment)
}

// Resolve is shorthand for Classify(raw).Resolve(environment).
func Resolve(raw any, environment string) any {
	return Classify(raw).Resolve(environment)
}

// Resolve returns the effective value of the definition for environment.
//
// Sequences and scalars are returned unchanged. A record without a common
// section and without a section named environment is returned unchanged too.
// Any other record yields a fresh mapping built by merging the common section
// first and the environment section on top of it.
func (d Definition) Resolve(environment string) any {
	if d.kind != KindRecord {
		return d.Value()
	}

	common, hasCommon := d.record[CommonSection]
	section, hasEnv := d.record[environment]
	if !hasCommon && !hasEnv {
		return d.record
	}

	composite := make(map[string]any)
	if hasCommon {
		mergeSection(composite, common)
	}
	if hasEnv {
		mergeSection(composite, section)
	}
	return composite
}

// mergeSection merges a reserved section into base. Sections that are not
// records carry no keys and contribute nothing.
func mergeSection(base map[string]any, section any) {
	if source, ok := section.(map[string]any); ok {
		mergeInto(base, source)
	}
}

// mergeInto copies every key of source into base. Nested records are merged
// key by key; everything else, sequences included, replaces the existing
// value outright. base never ends up sharing memory with source.
func mergeInto(base, source map[string]any) {
	for key, value := range source {
		nested, ok := value.(map[string]any)
		if !ok {
			base[key] = Clone(value)
			continue
		}

		target, ok := base[key].(map[string]any)
		if !ok {
			target = make(map[string]any, len(nested))
			base[key] = target
		}
		mergeInto(target, nested)
	}
}
