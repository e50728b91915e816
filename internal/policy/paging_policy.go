package policy

import "fmt"

// PagingPolicy clamps page and size for transaction history queries.
type PagingPolicy struct {
	defaultPage int
	defaultSize int
	maxSize     int
}

func NewPagingPolicy(defaultPage, defaultSize, maxSize int) (*PagingPolicy, error) {
	if defaultPage < 0 {
		return nil, fmt.Errorf("paging policy: default page must not be negative, got %d", defaultPage)
	}
	if defaultSize <= 0 || maxSize <= 0 {
		return nil, fmt.Errorf("paging policy: sizes must be positive, got default %d max %d", defaultSize, maxSize)
	}
	return &PagingPolicy{
		defaultPage: defaultPage,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}, nil
}

func (p *PagingPolicy) ValidatedPage(requested int) int {
	if requested < 0 {
		return p.defaultPage
	}
	return requested
}

func (p *PagingPolicy) ValidatedSize(requested int) int {
	if requested <= 0 {
		return p.defaultSize
	}
	if requested > p.maxSize {
		return p.maxSize
	}
	return requested
}
