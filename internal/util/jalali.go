// internal/util/jalali.go
package util

import (
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// JalaliDate formats t as a Jalali date string, e.g. "1403/08/09".
// User-facing notifications and receipts use the Persian calendar.
func JalaliDate(t time.Time) string {
	return ptime.New(t).Format("yyyy/MM/dd")
}

// JalaliDateTime formats t as a Jalali date-time string, e.g. "1403/08/09 14:30".
func JalaliDateTime(t time.Time) string {
	return ptime.New(t).Format("yyyy/MM/dd HH:mm")
}
