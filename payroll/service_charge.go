package payroll

import (
	"math"
	"sort"
)

// DistributeServiceCharge splits the month's pot equally across eligible
// staff, exact to the satang. The pot is converted to whole satang first;
// the integer remainder goes one satang each to the lowest staff ids, so the
// shares always sum back to the pot and reruns pick the same winners.
func DistributeServiceCharge(pot float64, staffIDs []int) map[int]float64 {
	shares := make(map[int]float64, len(staffIDs))
	if len(staffIDs) == 0 || pot <= 0 {
		return shares
	}

	ids := make([]int, len(staffIDs))
	copy(ids, staffIDs)
	sort.Ints(ids)

	totalSatang := int64(math.Round(pot * 100))
	base := totalSatang / int64(len(ids))
	remainder := totalSatang % int64(len(ids))

	for i, id := range ids {
		satang := base
		if int64(i) < remainder {
			satang++
		}
		shares[id] = float64(satang) / 100
	}
	return shares
}
