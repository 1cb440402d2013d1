package css

import (
	"hash/crc32"
	"strconv"
)

// castagnoli is pre-computed once; crc32.MakeTable is not free.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Hash returns a short base-36 content hash of s.
func Hash(s string) string {
	return strconv.FormatUint(uint64(crc32.Checksum([]byte(s), castagnoli)), 36)
}

// RuleID derives the content-addressed id of a single declaration.
// The tier prefix keeps ids valid class names (they never start with a digit).
func RuleID(tier Tier, property, value, selector string, atRules []string) string {
	n := len(property) + len(value) + len(selector)
	for _, at := range atRules {
		n += len(at)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, property...)
	buf = append(buf, value...)
	buf = append(buf, selector...)
	for _, at := range atRules {
		buf = append(buf, at...)
	}
	return tier.Prefix() + strconv.FormatUint(uint64(crc32.Checksum(buf, castagnoli)), 36)
}
