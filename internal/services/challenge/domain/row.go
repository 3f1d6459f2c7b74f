package domain

import (
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

func rowString(row ledger.Row, name string) string {
	s, _ := row[name].(string)
	return s
}

func rowNumber(row ledger.Row, name string) int64 {
	n, _ := row[name].(int64)
	return n
}

func rowNumbers(row ledger.Row, name string) []int64 {
	list, _ := row[name].([]int64)
	if len(list) == 0 {
		return nil
	}
	return append([]int64(nil), list...)
}

func rowOptional(row ledger.Row, name string) *int64 {
	n, ok := row[name].(int64)
	if !ok {
		return nil
	}
	return &n
}

// rowTime decodes unix milliseconds. Absent decodes as the zero time.
func rowTime(row ledger.Row, name string) time.Time {
	ms, ok := row[name].(int64)
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func putString(row ledger.Row, name, s string) {
	if s != "" {
		row[name] = s
	}
}

func putNumber(row ledger.Row, name string, n int64) {
	if n != 0 {
		row[name] = n
	}
}

func putNumbers(row ledger.Row, name string, list []int64) {
	if len(list) > 0 {
		row[name] = append([]int64(nil), list...)
	}
}

func putOptional(row ledger.Row, name string, n *int64) {
	if n != nil {
		putNumber(row, name, *n)
	}
}

func putTime(row ledger.Row, name string, t time.Time) {
	if !t.IsZero() {
		putNumber(row, name, t.UnixMilli())
	}
}

func cloneOptional(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// Int64 returns a pointer to n, for optional numeric fields.
func Int64(n int64) *int64 { return &n }
