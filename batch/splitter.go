package batch

import "github.com/Elactrac/dotnation-sub001/types"

// SplitRequests partitions reqs into consecutive chunks of at most ceiling
// operations, preserving order. The last chunk may be shorter. Concatenating
// the chunks reproduces reqs exactly; success ids downstream are reported in
// submission order, so deterministic chunking keeps runs replayable.
func SplitRequests(reqs []types.OperationRequest, ceiling int) ([][]types.OperationRequest, error) {
	if ceiling < 1 {
		return nil, ErrInvalidCeiling
	}
	batches := make([][]types.OperationRequest, 0, (len(reqs)+ceiling-1)/ceiling)
	for start := 0; start < len(reqs); start += ceiling {
		end := start + ceiling
		if end > len(reqs) {
			end = len(reqs)
		}
		batches = append(batches, reqs[start:end:end])
	}
	return batches, nil
}
