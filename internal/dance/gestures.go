package dance

// Category is the kind of gesture picked for a bar.
type Category int

const (
	Punctuation Category = iota
	Movement
	Dynamics
	Climactic
)

func (c Category) String() string {
	switch c {
	case Punctuation:
		return "punctuation"
	case Movement:
		return "movement"
	case Dynamics:
		return "dynamics"
	case Climactic:
		return "climactic"
	}
	return "unknown"
}

// Tier buckets smoothed energy.
type Tier int

const (
	TierLow Tier = iota
	TierMid
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMid:
		return "mid"
	case TierHigh:
		return "high"
	}
	return "unknown"
}

// gesturePools[category][tier]
var gesturePools = map[Category][3][]string{
	Punctuation: {
		{"nod", "tilt", "breathe"},
		{"nod", "bounce", "pulse"},
		{"bounce", "headBob", "pulse", "glow"},
	},
	Movement: {
		{"sway", "float"},
		{"sway", "lean", "twist"},
		{"spin", "jump", "hula", "orbit"},
	},
	Dynamics: {
		{"pulse", "shimmer"},
		{"pulse", "glow", "shake"},
		{"flash", "shake", "sparkle", "vibrate"},
	},
	Climactic: {
		{"burst", "spin"},
		{"burst", "spin", "jump"},
		{"burst", "spin", "jump", "orbit"},
	},
}

// combos are short fixed sequences dispatched one stagger apart.
var combos = [][]string{
	{"bounce", "pulse"},
	{"nod", "tilt"},
	{"sway", "twist", "bounce"},
	{"spin", "sparkle"},
	{"headBob", "glow"},
}

// GesturePool returns the candidate gestures for a category and tier.
func GesturePool(c Category, t Tier) []string {
	return gesturePools[c][t]
}

// Gestures lists every gesture name the choreographer can emit.
func Gestures() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, c := range []Category{Punctuation, Movement, Dynamics, Climactic} {
		for _, pool := range gesturePools[c] {
			add(pool)
		}
	}
	for _, combo := range combos {
		add(combo)
	}
	return out
}
