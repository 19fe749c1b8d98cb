package domain

import "fmt"

// CategoryRef is the 1-based position of a tab in the category menu.
type CategoryRef int

func (c CategoryRef) String() string {
	return fmt.Sprintf("category#%d", int(c))
}

// CategoryRefs returns the refs 1..count in menu order.
func CategoryRefs(count int) []CategoryRef {
	refs := make([]CategoryRef, 0, count)
	for i := 1; i <= count; i++ {
		refs = append(refs, CategoryRef(i))
	}
	return refs
}
