package fragment

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// NamePrefix marks a file as a metadata fragment under an array's metadata
// directory, distinguishing it from any other file a VFS backend might list
// there.
const NamePrefix = "__"

// SuffixHexLen is the minimum length, in hex characters, of the random
// uniqueness suffix that breaks ties between fragments sharing a millisecond
// timestamp.
const SuffixHexLen = 8

// BuildName returns the fragment filename for a session that opened (for
// WRITE) or was consolidated at timestamp tsMillis, using a freshly
// generated random suffix. Filenames sort lexicographically by tsMillis
// because the timestamp is zero-padded to 20 digits.
func BuildName(tsMillis int64) (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}

	return formatName(tsMillis, suffix), nil
}

func formatName(tsMillis int64, suffix string) string {
	return fmt.Sprintf("%s%020d_%s", NamePrefix, tsMillis, suffix)
}

func randomSuffix() (string, error) {
	raw := make([]byte, SuffixHexLen/2+1)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("fragment: generating uniqueness suffix: %w", err)
	}

	return hex.EncodeToString(raw)[:SuffixHexLen], nil
}

// ParseName extracts the millisecond timestamp from a fragment filename. It
// returns ok=false if name does not match the "__<20-digit-ms>_<suffix>"
// layout, so callers can silently skip files in the metadata directory that
// aren't fragments.
func ParseName(name string) (tsMillis int64, ok bool) {
	rest, found := strings.CutPrefix(name, NamePrefix)
	if !found {
		return 0, false
	}

	idx := strings.IndexByte(rest, '_')
	if idx != 20 {
		return 0, false
	}

	ts, err := strconv.ParseInt(rest[:idx], 10, 64)
	if err != nil {
		return 0, false
	}

	if len(rest[idx+1:]) < SuffixHexLen {
		return 0, false
	}

	return ts, true
}
