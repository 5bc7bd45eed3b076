// pkg/cleaner/impute.go
package cleaner

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// imputeWeightFat fills missing body-fat values with the per-user median
// of the values that user did report. Users with no reported fat values
// keep their nils. Only the weight dataset carries a Fat column.
//
// Rows are copied before modification so the raw dataset stays untouched.
func (c *Cleaner) imputeWeightFat(ds *model.Dataset) []model.RemediationRecord {
	if ds.Kind != model.KindWeight || !ds.HasField("Fat") {
		return nil
	}

	// Collect reported fat values per user
	values := make(map[string][]float64)
	for _, row := range ds.Rows {
		id := userKey(row)
		if id == "" {
			continue
		}
		if v, ok := model.AsFloat(row["Fat"]); ok {
			values[id] = append(values[id], v)
		}
	}

	records := make([]model.RemediationRecord, 0)
	for i, row := range ds.Rows {
		if row["Fat"] != nil {
			continue
		}
		id := userKey(row)
		med, ok := median(values[id])
		if !ok {
			continue
		}

		cp := make(model.Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		cp["Fat"] = med
		ds.Rows[i] = cp

		records = append(records, model.RemediationRecord{
			Dataset:       ds.Kind,
			Rule:          "fat_median_imputation",
			Action:        ActionValueImputed,
			RowIdentifier: ds.RowIdentifier(i),
			FieldName:     "Fat",
			OriginalValue: nil,
			NewValue:      fmt.Sprintf("%g", med),
			Reason:        "missing_fat_filled_with_user_median",
			OccurredAt:    c.now(),
		})
	}

	if len(records) > 0 {
		c.logger.Info("Imputed missing fat values",
			zap.Int("count", len(records)))
	}

	return records
}

func userKey(row model.Row) string {
	if row["Id"] == nil {
		return ""
	}
	return fmt.Sprintf("%v", row["Id"])
}

// median returns the median of the values, false when there are none
func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}
