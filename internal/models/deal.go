package models

// Deal compares an announce's asking price against a reference price.
// A negative Price means the announce is cheaper than the reference.
type Deal struct {
	Price      float64 `json:"price"`
	Percentage float64 `json:"percentage"`
}

// PricePolicy picks the reference price a deal is computed against.
// It returns false when no usable reference exists.
type PricePolicy func(refs map[string]Reference) (float64, bool)

// MinReferencePrice returns a policy selecting the cheapest reference,
// ignoring the sources named in exclude (the marketplace references itself,
// and a price compared against itself is always a zero deal).
func MinReferencePrice(exclude ...string) PricePolicy {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}
	return func(refs map[string]Reference) (float64, bool) {
		best := 0.0
		found := false
		for _, ref := range refs {
			if excluded[ref.Name] || ref.Price <= 0 {
				continue
			}
			if !found || ref.Price < best {
				best = ref.Price
				found = true
			}
		}
		return best, found
	}
}

// ComputeDeal derives the deal for price against refs under policy.
// It is pure: same inputs always yield the same deal. When the policy
// finds no reference the zero deal is returned.
func ComputeDeal(price float64, refs map[string]Reference, policy PricePolicy) Deal {
	refPrice, ok := policy(refs)
	if !ok {
		return Deal{}
	}
	delta := price - refPrice
	return Deal{
		Price:      delta,
		Percentage: delta / refPrice * 100,
	}
}
