package resolver

import "github.com/Sumatoshi-tech/modcache/pkg/loader"

// Reason explains the outcome of a resolution. Every value other than Hit is
// a miss; none of them is an error.
type Reason int

const (
	// Hit means a module was returned.
	Hit Reason = iota
	// NotBuilt means Resolve ran before any successful Build.
	NotBuilt
	// InvalidName means the requested name carried no simple name.
	InvalidName
	// NoCandidate means no indexed location had a matching file name.
	NoCandidate
	// IdentityMismatch means a file name matched but its identity header
	// was unreadable or differed in version, locale or key.
	IdentityMismatch
	// LoadFailed means a candidate matched by name and identity but could
	// not be loaded.
	LoadFailed
)

var reasonNames = [...]string{
	Hit:              "hit",
	NotBuilt:         "not_built",
	InvalidName:      "invalid_name",
	NoCandidate:      "no_candidate",
	IdentityMismatch: "identity_mismatch",
	LoadFailed:       "load_failed",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}

	return reasonNames[r]
}

// Tier tells where a hit came from.
type Tier int

const (
	// TierNone is the tier of a miss.
	TierNone Tier = iota
	// TierBuiltin is a hit in the builtin set.
	TierBuiltin
	// TierCached is a hit in the resolved-module cache.
	TierCached
	// TierLoaded is a module loaded from a reference during this call.
	TierLoaded
)

var tierNames = [...]string{
	TierNone:    "none",
	TierBuiltin: "builtin",
	TierCached:  "cached",
	TierLoaded:  "loaded",
}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}

	return tierNames[t]
}

// Result is the detailed outcome of a resolution.
type Result struct {
	// Module is the resolved module; nil on a miss.
	Module *loader.Module

	// Reason is Hit or the reason for the miss.
	Reason Reason

	// Tier tells where a hit came from.
	Tier Tier

	// Candidates is the number of loadable index entries whose file name
	// matched the request.
	Candidates int
}

// Found reports whether the result is a hit.
func (r Result) Found() bool {
	return r.Reason == Hit
}

func (r Result) outcome() string {
	if r.Found() {
		return r.Tier.String()
	}

	return r.Reason.String()
}

// furthest keeps the miss reason that got deepest into the pipeline, so a
// mismatch on one candidate is not hidden by a later candidate's filter miss.
func furthest(a, b Reason) Reason {
	return max(a, b)
}
