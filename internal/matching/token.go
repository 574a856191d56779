package matching

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/supplysync/catalog_api/internal/models"
)

// TokenStrategy scores names by comparing their token sets, blended with a
// character-bigram ratio so that morphological variants ("2m" vs "2 m",
// "cable" vs "cables") still contribute. Scores are 0-100.
//
// The exact weighting is tuned against a labeled corpus; the two decision
// thresholds in config are the load-bearing contract, not this formula.
type TokenStrategy struct{}

// NewTokenStrategy constructs the default matching strategy.
func NewTokenStrategy() *TokenStrategy {
	return &TokenStrategy{}
}

// Name implements Strategy.
func (s *TokenStrategy) Name() string { return "token" }

// FindMatches implements Strategy. Candidates are returned ranked by
// descending score; zero-score candidates are dropped.
func (s *TokenStrategy) FindMatches(item *models.SupplierItem, candidates []models.Product) []models.MatchCandidate {
	itemTokens := Tokens(item.Name)
	ranked := make([]models.MatchCandidate, 0, len(candidates))
	for _, p := range candidates {
		score := s.score(itemTokens, Tokens(p.Name))
		if score <= 0 {
			continue
		}
		ranked = append(ranked, models.MatchCandidate{
			ProductID: p.ID,
			Name:      p.Name,
			Score:     score,
		})
	}
	// Stable so equal scores keep candidate-set order (deterministic output).
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// Score exposes the pairwise scorer for calibration tooling and tests.
func (s *TokenStrategy) Score(a, b string) int {
	return s.score(Tokens(a), Tokens(b))
}

func (s *TokenStrategy) score(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sortedA, sortedB := sortedJoin(a), sortedJoin(b)
	if sortedA == sortedB {
		return 100
	}

	setA := toSet(a)
	setB := toSet(b)
	var matchSum float64
	var restA, restB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			matchSum++
		} else {
			restA = append(restA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			restB = append(restB, t)
		}
	}

	// Leftover tokens get partial credit: "2m" vs "1.9m" is nearly the same
	// length, "cables" vs "cable" the same word. Greedy best-pair alignment.
	used := make(map[int]bool, len(restB))
	for _, t := range restA {
		best, bestIdx := 0.0, -1
		for j, u := range restB {
			if used[j] {
				continue
			}
			if sim := tokenSimilarity(t, u); sim > best {
				best, bestIdx = sim, j
			}
		}
		if best >= 0.3 {
			matchSum += best
			used[bestIdx] = true
		}
	}

	// Containment over the smaller set dominates: an item name that fully
	// contains a product name (or vice versa) is a strong signal even when
	// extra tokens are present. Containment over the larger set keeps a
	// one-word overlap from scoring high.
	small, large := len(setA), len(setB)
	if small > large {
		small, large = large, small
	}
	tokenScore := 0.85*(matchSum/float64(small)) + 0.15*(matchSum/float64(large))

	charScore := bigramRatio(sortedA, sortedB)

	best := math.Max(tokenScore, charScore)
	return int(math.Round(best * 100))
}

var numericToken = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-z]+)?$`)

// nearValueCredit caps the credit a close-but-unequal measurement can earn.
// "1.9m" and "2m" name different size variants: without the cap, a short
// product name contained in a longer item name plus a near-miss measurement
// scores past the auto threshold and a review case gets linked unseen.
const nearValueCredit = 0.7

// tokenSimilarity compares two non-identical tokens. Numeric tokens only
// match when their units agree, scored by capped value ratio; word tokens
// use a bigram ratio over boundary-padded forms. A numeric and a word token
// never match.
func tokenSimilarity(a, b string) float64 {
	ma := numericToken.FindStringSubmatch(a)
	mb := numericToken.FindStringSubmatch(b)
	switch {
	case ma != nil && mb != nil:
		if ma[2] != mb[2] {
			return 0
		}
		va, errA := strconv.ParseFloat(ma[1], 64)
		vb, errB := strconv.ParseFloat(mb[1], 64)
		if errA != nil || errB != nil || va == 0 || vb == 0 {
			return 0
		}
		return nearValueCredit * math.Min(va, vb) / math.Max(va, vb)
	case ma != nil || mb != nil:
		return 0
	default:
		return bigramRatio("^"+a+"$", "^"+b+"$")
	}
}

// bigramRatio is the Sorensen-Dice coefficient over character bigrams of the
// two canonical (sorted-token) strings.
func bigramRatio(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	overlap := 0
	for bg, n := range ba {
		if m, ok := bb[bg]; ok {
			if m < n {
				n = m
			}
			overlap += n
		}
	}
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(overlap) / float64(total)
}

func bigrams(s string) map[string]int {
	r := []rune(s)
	out := make(map[string]int, len(r))
	for i := 0; i+1 < len(r); i++ {
		out[string(r[i:i+2])]++
	}
	return out
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
