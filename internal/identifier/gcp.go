package identifier

import "github.com/trackvision/epcis-convert/internal/model"

// partitionRange maps a partition digit (the first digit of a GTIN/GLN/SSCC
// reference segment, after any indicator/extension digit) to the GCP
// length it implies. Simplified relative to the full GS1 partition table
// (which additionally inspects following digits for some lengths). Only
// InferGCPLength reads it: ToURN does not consult it and always takes the
// GCP length from its caller's hint.
var partitionRange = []struct {
	minDigit, maxDigit int
	gcpLength          int
}{
	{0, 1, 12},
	{2, 3, 11},
	{4, 6, 10},
	{7, 8, 9},
	{9, 9, 8},
}

// InferGCPLength infers the GCP length from the partition digit of a
// 12/13-digit reference (the digit immediately following any
// indicator/extension digit). Returns ErrUnknownGcpLength if digit is out
// of range.
func InferGCPLength(partitionDigit int) (int, error) {
	for _, r := range partitionRange {
		if partitionDigit >= r.minDigit && partitionDigit <= r.maxDigit {
			return r.gcpLength, nil
		}
	}
	return 0, model.ErrUnknownGcpLength
}
