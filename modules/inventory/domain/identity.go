package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// KeyedRecord pairs a record with its identity key and the parsed inventory
// date the key was derived from.
type KeyedRecord struct {
	Record Record
	Key    string
	Date   time.Time
}

// dateLayouts are the calendar representations accepted for the DATE column.
// Store-side dates always arrive as 2006-01-02; workbook cells vary with the
// cell format excelize renders.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01-02-06",
	"1/2/2006",
	"1/2/06",
	"2006/01/02",
	"02-Jan-06",
	"January 2, 2006",
}

// Excel serial date bounds: 1990-01-01 .. 2100-01-01. Plain numeric cells
// outside this window are not treated as dates.
const (
	serialDateMin = 32874
	serialDateMax = 73051
)

var serialDateEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NormalizeIdentifier canonicalizes an item code for identity purposes:
// internal whitespace runs collapse to a single space, surrounding
// whitespace is trimmed, a trailing ".0" numeric-as-text artifact is
// stripped, and the result is uppercased so re-keyed store rows and freshly
// extracted rows agree regardless of entry casing.
func NormalizeIdentifier(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	return strings.ToUpper(s)
}

// ParseInventoryDate parses a DATE cell. Unparseable values report ok=false;
// they are never coerced to a sentinel date.
func ParseInventoryDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return dateOnlyUTC(t), true
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial >= serialDateMin && serial <= serialDateMax {
			days := math.Floor(serial)
			return serialDateEpoch.AddDate(0, 0, int(days)), true
		}
	}
	return time.Time{}, false
}

func dateOnlyUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DeriveKeys computes identity keys for the records that carry a usable item
// code and a parseable date, preserving input order, and counts the rest as
// dropped. Coalescing and normalization run only on rows that survive the
// filter, so an absent-value placeholder can never leak into a key. The same
// function keys both store snapshots and fresh extracts.
func DeriveKeys(records []Record) ([]KeyedRecord, int) {
	keyed := make([]KeyedRecord, 0, len(records))
	dropped := 0
	for _, rec := range records {
		code := rec[ColStencil]
		if strings.TrimSpace(code) == "" {
			code = rec[ColSilkscreen]
		}
		if strings.TrimSpace(code) == "" {
			dropped++
			continue
		}
		date, ok := ParseInventoryDate(rec[ColDate])
		if !ok {
			dropped++
			continue
		}
		keyed = append(keyed, KeyedRecord{
			Record: rec,
			Key:    NormalizeIdentifier(code) + "_" + date.Format("2006-01-02"),
			Date:   date,
		})
	}
	return keyed, dropped
}

// IdentitySet collects the keys of a keyed sequence; membership only.
func IdentitySet(keyed []KeyedRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(keyed))
	for _, k := range keyed {
		set[k.Key] = struct{}{}
	}
	return set
}

// FilterNew returns the incoming records whose key is absent from the
// existing set, in input order. Membership is exact string equality; no
// fuzzy matching.
func FilterNew(incoming []KeyedRecord, existing map[string]struct{}) []KeyedRecord {
	out := make([]KeyedRecord, 0, len(incoming))
	for _, k := range incoming {
		if _, ok := existing[k.Key]; ok {
			continue
		}
		out = append(out, k)
	}
	return out
}
