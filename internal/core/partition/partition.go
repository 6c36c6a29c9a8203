package partition

import "hash/fnv"

// Count is the fixed number of logical partitions slot rows are spread over.
// Changing it re-homes every stored slot.
const Count = 256

// For returns the partition ID of a slot owner (source or group id).
// Stable and deterministic: the same owner always maps to the same partition.
func For(owner string) int {
	h := fnv.New32a()
	h.Write([]byte(owner))
	return int(h.Sum32() % Count)
}
