package dance

// geometryCatalog is every shape an excursion may visit.
var geometryCatalog = []GeometryTarget{
	{Geometry: "sphere"},
	{Geometry: "crystal", Variant: "quartz"},
	{Geometry: "crystal", Variant: "rose"},
	{Geometry: "crystal", Variant: "amethyst"},
	{Geometry: "moon", Variant: "full"},
	{Geometry: "moon", Variant: "crescent"},
	{Geometry: "moon", Variant: "gibbous"},
	{Geometry: "sun"},
	{Geometry: "heart"},
	{Geometry: "star"},
	{Geometry: "torus-knot"},
}

// emotionPools[tier]
var emotionPools = [3][]string{
	{"calm", "resting", "focused", "sadness", "neutral"},
	{"joy", "love", "focused", "suspicion", "neutral"},
	{"excited", "euphoria", "joy", "love", "surprise"},
}

var dramaticEmotions = []string{"euphoria", "surprise", "glitch", "anger"}

// Emotions returns every emotion an excursion may show, without duplicates.
func Emotions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, pool := range append(emotionPools[:], dramaticEmotions) {
		for _, name := range pool {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// GeometryCatalog returns a copy of the excursion shapes.
func GeometryCatalog() []GeometryTarget {
	return append([]GeometryTarget(nil), geometryCatalog...)
}

// pickExcluding draws uniformly from items that are neither current nor home.
// If that leaves nothing it retries excluding only current; ok is false when
// both filters are empty.
func pickExcluding[T comparable](rng Random, items []T, current, home T) (T, bool) {
	var zero T
	candidates := make([]T, 0, len(items))
	for _, it := range items {
		if it != current && it != home {
			candidates = append(candidates, it)
		}
	}
	if len(candidates) == 0 {
		for _, it := range items {
			if it != current {
				candidates = append(candidates, it)
			}
		}
	}
	if len(candidates) == 0 {
		return zero, false
	}
	return candidates[rng.IntN(len(candidates))], true
}
