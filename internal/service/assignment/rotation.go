package assignment

import "sort"

// RotationOrder возвращает порядок обхода сотрудников по кругу после last
// Если last нет в списке, обход начинается с первого id, большего last
func RotationOrder(ids []int64, last *int64) []int64 {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if len(sorted) == 0 || last == nil {
		return sorted
	}

	start := sort.Search(len(sorted), func(i int) bool { return sorted[i] > *last })
	order := make([]int64, 0, len(sorted))
	order = append(order, sorted[start:]...)
	return append(order, sorted[:start]...)
}

// NextEmployee выбирает следующего сотрудника после указателя, пропуская занятых
func NextEmployee(ids []int64, last *int64, skip func(employeeID int64) bool) (int64, bool) {
	for _, id := range RotationOrder(ids, last) {
		if skip != nil && skip(id) {
			continue
		}
		return id, true
	}
	return 0, false
}
