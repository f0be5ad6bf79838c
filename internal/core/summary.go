package core

// CategoryTotal is an amount aggregated under one category label.
type CategoryTotal struct {
	Category string
	Total    float64
}

// Summary is a compact overview of a set of expenses.
type Summary struct {
	Total      float64
	Count      int
	Average    float64
	ByCategory []CategoryTotal
}

// CalculateTotal sums the amounts of the given expenses. An empty or nil
// slice totals zero.
func CalculateTotal(expenses []Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// GroupByCategory buckets expenses by category label. Uncategorized
// entries land under CategoryOther. Entries keep their relative order
// within each bucket.
func GroupByCategory(expenses []Expense) map[string][]Expense {
	groups := make(map[string][]Expense)
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = CategoryOther
		}
		groups[cat] = append(groups[cat], e)
	}
	return groups
}

// Summarize computes totals, count, average and the per-category
// breakdown. Categories appear in first-seen order, matching the order
// the expenses arrived in.
func Summarize(expenses []Expense) Summary {
	s := Summary{Count: len(expenses)}
	byCat := map[string]float64{}
	var order []string
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = CategoryOther
		}
		if _, seen := byCat[cat]; !seen {
			order = append(order, cat)
		}
		byCat[cat] += e.Amount
		s.Total += e.Amount
	}
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	for _, cat := range order {
		s.ByCategory = append(s.ByCategory, CategoryTotal{Category: cat, Total: byCat[cat]})
	}
	return s
}
