package deps

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Select picks a version from available that satisfies rng under policy.
//
// Versions that are not valid semver are ignored. A range that cannot be
// parsed (git URLs, file: paths, npm: aliases) behaves like a range nothing
// satisfies: the result is ("", false).
func Select(policy Policy, available []string, rng string) (string, bool) {
	c, err := semver.NewConstraint(normalizeRange(rng))
	if err != nil {
		return "", false
	}

	var best *semver.Version
	var bestRaw string
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil || !c.Check(v) {
			continue
		}
		if best == nil || better(policy, v, best) {
			best, bestRaw = v, raw
		}
	}
	return bestRaw, best != nil
}

// SelectFromMetadata is [Select] over the versions in m, with one addition:
// a range that names one of m's dist-tags selects the tagged version.
func SelectFromMetadata(policy Policy, m *Metadata, rng string) (string, bool) {
	if m == nil {
		return "", false
	}
	if v, ok := m.DistTags[strings.TrimSpace(rng)]; ok {
		if _, published := m.Versions[v]; published {
			return v, true
		}
	}
	return Select(policy, m.AvailableVersions(), rng)
}

func better(policy Policy, v, than *semver.Version) bool {
	if c := v.Compare(than); c != 0 {
		if policy == PolicyLowest {
			return c < 0
		}
		return c > 0
	}
	// Equal precedence ("1.0.0" vs "1.0.0+build"): keep the lexically
	// smaller original so the choice does not depend on map order.
	return v.Original() < than.Original()
}

// normalizeRange rewrites npm range spelling into the comma-separated form
// semver.NewConstraint parses reliably.
//
//	">= 1.2.0 < 2"      -> ">=1.2.0, <2"
//	"1.2.3 - 2.0.0"     -> "1.2.3 - 2.0.0"
//	"^1 || >=3.0.0 <4"  -> "^1 || >=3.0.0, <4"
//	"", "latest"        -> "*"
func normalizeRange(rng string) string {
	rng = strings.TrimSpace(rng)
	if rng == "" || rng == "latest" {
		return "*"
	}
	sets := strings.Split(rng, "||")
	for i, set := range sets {
		sets[i] = normalizeSet(set)
	}
	return strings.Join(sets, " || ")
}

func normalizeSet(set string) string {
	fields := strings.Fields(set)
	if len(fields) == 0 {
		return "*"
	}
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch {
		case f == "-" && len(out) > 0 && i+1 < len(fields):
			out[len(out)-1] += " - " + fields[i+1]
			i++
		case isOperator(f) && i+1 < len(fields):
			out = append(out, f+fields[i+1])
			i++
		default:
			out = append(out, f)
		}
	}
	return strings.Join(out, ", ")
}

func isOperator(s string) bool {
	switch s {
	case "=", "<", "<=", ">", ">=", "~", "~>", "^", "!=":
		return true
	}
	return false
}
