package repository

// Pagination holds pagination parameters for listing entities.
type Pagination struct {
	PageNo   int32
	PageSize int32
}

func (p *Pagination) Offset() int32 { return (p.PageNo - 1) * p.PageSize }

// Bounds returns the [start, end) window of a list of n items.
func (p *Pagination) Bounds(n int) (int, int) {
	if p == nil || p.PageSize <= 0 {
		return 0, n
	}
	pageNo := p.PageNo
	if pageNo <= 0 {
		pageNo = 1
	}
	start := int((pageNo - 1) * p.PageSize)
	if start > n {
		start = n
	}
	end := start + int(p.PageSize)
	if end > n {
		end = n
	}
	return start, end
}

type FilterOrder struct {
	Filter  string
	OrderBy string
}

func (fo *FilterOrder) GetFilter() string { return fo.Filter }

func (fo *FilterOrder) GetOrderBy() string { return fo.OrderBy }
