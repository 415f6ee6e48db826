package cached

import (
	"time"

	"crtracker/pkg/domain"
)

// Cache keys are a composite of operation name and arguments. Reads and
// invalidation MUST go through these builders; computing a key any other way
// risks silent cache poisoning.
//
// Keys whose values feed aggregate statistics (ranges, counts) live under
// statsPrefix so a single prefix eviction covers every derived entry after a
// write.
const (
	reportPrefix = "cr:report:"
	statsPrefix  = "cr:stats:"
)

func day(t time.Time) string {
	return domain.Day(t).Format("2006-01-02")
}

func idKey(id domain.ReportID) string {
	return reportPrefix + "id:" + id.String()
}

func userDateKey(userID domain.UserID, date time.Time) string {
	return reportPrefix + "userdate:" + userID.String() + ":" + day(date)
}

func userListKey(userID domain.UserID) string {
	return reportPrefix + "user:" + userID.String()
}

func userRangeKey(userID domain.UserID, start, end time.Time) string {
	return statsPrefix + "range:" + userID.String() + ":" + day(start) + ":" + day(end)
}

func userCountKey(userID domain.UserID, start, end time.Time) string {
	return statsPrefix + "count:" + userID.String() + ":" + day(start) + ":" + day(end)
}
