package variants

// Expand returns every combination that picks one item from each column, preserving column
// order inside each combination and enumerating the last column fastest. An empty column list,
// or any empty column, yields no combinations.
func Expand[T any](columns [][]T) [][]T {
	if len(columns) == 0 {
		return nil
	}
	for _, column := range columns {
		if len(column) == 0 {
			return nil
		}
	}

	rows := [][]T{{}}
	for _, column := range columns {
		next := make([][]T, 0, len(rows)*len(column))
		for _, prefix := range rows {
			for _, item := range column {
				row := make([]T, len(prefix)+1)
				copy(row, prefix)
				row[len(prefix)] = item
				next = append(next, row)
			}
		}
		rows = next
	}
	return rows
}
