package services

// Page selects a 1-based page of Size items.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 || p.Size <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}
