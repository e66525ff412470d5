package coupon

// mapCouponSet implements CouponSet using a map for O(1) lookups.
type mapCouponSet struct {
	coupons map[string]struct{}
}

// NewMapCouponSet creates a new map-based coupon set.
func NewMapCouponSet(capacity int) CouponSet {
	return &mapCouponSet{
		coupons: make(map[string]struct{}, capacity),
	}
}

// NewCouponSetFromCodes builds a set holding the given codes.
func NewCouponSetFromCodes(codes []string) CouponSet {
	set := &mapCouponSet{
		coupons: make(map[string]struct{}, len(codes)),
	}
	for _, code := range codes {
		set.Add(code)
	}
	return set
}

// Contains checks if a coupon code exists in the set.
func (s *mapCouponSet) Contains(code string) bool {
	_, exists := s.coupons[code]
	return exists
}

// Size returns the number of coupons in the set.
func (s *mapCouponSet) Size() int {
	return len(s.coupons)
}

// Add adds a coupon code to the set.
func (s *mapCouponSet) Add(code string) {
	s.coupons[code] = struct{}{}
}

// unionCouponSet is a read-only view over several sets.
type unionCouponSet struct {
	sets []CouponSet
}

// Union returns a set containing every code of the given sets without copying them.
// Nil sets are skipped. Size is the sum of member sizes and may over-count
// codes present in more than one set.
func Union(sets ...CouponSet) CouponSet {
	members := make([]CouponSet, 0, len(sets))
	for _, s := range sets {
		if s != nil {
			members = append(members, s)
		}
	}
	return &unionCouponSet{sets: members}
}

// Contains checks if any member set contains the code.
func (u *unionCouponSet) Contains(code string) bool {
	for _, s := range u.sets {
		if s.Contains(code) {
			return true
		}
	}
	return false
}

// Size returns the summed size of the member sets.
func (u *unionCouponSet) Size() int {
	total := 0
	for _, s := range u.sets {
		total += s.Size()
	}
	return total
}
