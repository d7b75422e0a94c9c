package crunch

// Capacity policies decide when a [Buffer] emits its pending records. A policy
// is evaluated after every append and receives all pending records; returning
// true emits them as one batch.
//
// Ready-made policies are available for common patterns:
//   - [SizeCapacity]: fixed number of records per batch
//   - [WeightCapacity]: cumulative weight (e.g., payload bytes, SQL params)
//   - [DistinctKeyCapacity]: number of distinct keys (e.g., tenants) per batch
//   - [AnyCapacity]: emit when any of several policies triggers
//
// Example:
//
//	// Batch up to 500 rows, or fewer if they carry more than 65535 SQL params
//	err := job.AddTransformation(upsert, crunch.WithBufferWhen(crunch.AnyCapacity(
//	    crunch.SizeCapacity(500),
//	    crunch.WeightCapacity(func(crunch.Record) int { return 12 }, 65535),
//	)))
type CapacityFunc = func(pending []Record) bool

// SizeCapacity triggers once maxSize records are pending. A non-positive
// maxSize triggers on every record.
func SizeCapacity(maxSize int) CapacityFunc {
	return func(pending []Record) bool {
		return len(pending) >= maxSize
	}
}

// WeightCapacity triggers once the total weight of the pending records
// reaches maxWeight. The weigher returns the weight of one record.
//
// A single record heavier than maxWeight is emitted on its own as soon as it
// is pushed; it is never dropped.
//
// Example:
//
//	// Batch by estimated payload size
//	capacity := crunch.WeightCapacity(func(r crunch.Record) int { return len(r.([]byte)) }, 10*1024*1024)
func WeightCapacity(weigher func(Record) int, maxWeight int) CapacityFunc {
	return func(pending []Record) bool {
		total := 0
		for _, r := range pending {
			total += weigher(r)
		}
		return total >= maxWeight
	}
}

// DistinctKeyCapacity triggers once the pending records span maxKeys
// distinct keys. Use it to bound how many partitions (tenants, tables, ...)
// a single downstream call touches.
func DistinctKeyCapacity[K comparable](keyFn func(Record) K, maxKeys int) CapacityFunc {
	return func(pending []Record) bool {
		return len(groupBy(pending, keyFn)) >= maxKeys
	}
}

// AnyCapacity triggers as soon as any of the given policies triggers.
func AnyCapacity(policies ...CapacityFunc) CapacityFunc {
	return func(pending []Record) bool {
		for _, full := range policies {
			if full(pending) {
				return true
			}
		}
		return false
	}
}

// groupBy groups items by a key extracted from each item.
func groupBy[T any, K comparable](items []T, keyFn func(T) K) map[K][]T {
	result := make(map[K][]T)
	for _, item := range items {
		key := keyFn(item)
		result[key] = append(result[key], item)
	}
	return result
}
