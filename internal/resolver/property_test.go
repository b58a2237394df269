package resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const propertyEnvironment = "staging"

// Keys are at most five letters so they never collide with "common" or the
// environment name.
var keyGen = rapid.StringMatching(`[a-z]{1,5}`)

func drawScalar(t *rapid.T, label string) any {
	switch rapid.IntRange(0, 2).Draw(t, label+"/scalar") {
	case 0:
		return rapid.Int().Draw(t, label+"/int")
	case 1:
		return rapid.Bool().Draw(t, label+"/bool")
	default:
		return rapid.StringMatching(`[a-z ]{0,8}`).Draw(t, label+"/string")
	}
}

func drawValue(t *rapid.T, depth int, label string) any {
	limit := 2
	if depth <= 0 {
		limit = 0
	}
	switch rapid.IntRange(0, limit).Draw(t, label+"/kind") {
	case 1:
		return drawSequence(t, depth-1, label)
	case 2:
		return drawRecord(t, depth-1, label)
	default:
		return drawScalar(t, label)
	}
}

func drawSequence(t *rapid.T, depth int, label string) []any {
	n := rapid.IntRange(0, 3).Draw(t, label+"/len")
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, drawValue(t, depth, fmt.Sprintf("%s[%d]", label, i)))
	}
	return out
}

func drawRecord(t *rapid.T, depth int, label string) map[string]any {
	n := rapid.IntRange(0, 4).Draw(t, label+"/len")
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key := keyGen.Draw(t, fmt.Sprintf("%s/key%d", label, i))
		out[key] = drawValue(t, depth, label+"."+key)
	}
	return out
}

func TestResolveSequenceIdentityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := drawSequence(t, 3, "seq")
		before := Clone(seq)

		assert.Equal(t, before, Resolve(seq, propertyEnvironment))
	})
}

func TestResolveRecordWithoutSectionsIdentityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		record := drawRecord(t, 3, "record")
		before := Clone(record)

		assert.Equal(t, before, Resolve(record, propertyEnvironment))
	})
}

func TestResolveOnlyCommonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		common := drawRecord(t, 3, "common")
		raw := map[string]any{CommonSection: common, "other": drawRecord(t, 2, "other")}

		assert.Equal(t, Clone(common), Resolve(raw, propertyEnvironment))
	})
}

func TestResolveOnlyEnvironmentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		section := drawRecord(t, 3, "env")
		raw := map[string]any{propertyEnvironment: section}

		assert.Equal(t, Clone(section), Resolve(raw, propertyEnvironment))
	})
}

func TestResolveOverlayProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		common := drawRecord(t, 3, "common")
		section := drawRecord(t, 3, "env")
		raw := map[string]any{CommonSection: common, propertyEnvironment: section}

		got, ok := Resolve(raw, propertyEnvironment).(map[string]any)
		require.True(t, ok, "expected a record")
		checkOverlay(t, got, common, section)
	})
}

// checkOverlay asserts got is top merged over base.
func checkOverlay(t *rapid.T, got, base, top map[string]any) {
	seen := 0
	for key, value := range top {
		seen++
		nested, ok := value.(map[string]any)
		if !ok {
			assert.Equal(t, value, got[key], "key %q must be replaced by the top value", key)
			continue
		}
		gotNested, ok := got[key].(map[string]any)
		require.True(t, ok, "key %q must stay a record", key)
		baseNested, _ := base[key].(map[string]any)
		checkOverlay(t, gotNested, baseNested, nested)
	}
	for key, value := range base {
		if _, ok := top[key]; ok {
			continue
		}
		seen++
		assert.Equal(t, value, got[key], "key %q only in base must survive", key)
	}
	assert.Len(t, got, seen)
}
