// Package fixedweekly compiles a human-authored weekly tariff description
// into a per-weekday segment table and expands it into absolute, time-zone
// correct price intervals.
package fixedweekly

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

// segment is one validated slice of a weekday's tariff, in wall-clock
// minutes from local midnight. end may exceed minutesPerDay when the range
// wraps past midnight; a full-day segment spans 0..minutesPerDay.
type segment struct {
	start   int
	end     int
	wraps   bool
	fullDay bool
	value   decimal.Decimal
}

// Schedule is an immutable weekly tariff: for every weekday an ordered list
// of contiguous segments whose union is exactly 24 hours. Construction via
// New guarantees internal consistency; a Schedule never needs re-validation.
type Schedule struct {
	days map[time.Weekday][]segment
	loc  *time.Location
}

// Grammar: Days[=HH:MM-HH:MM]=price, e.g. "Mon-Fri=08:00-20:00=0.05" or "Sun=0.042".
var segmentExpr = regexp.MustCompile(`^([A-Za-z,-]+)(?:=(\d\d):(\d\d)-(\d\d):(\d\d))?=(.+)$`)

// New parses and validates a weekly tariff description. It fails on the
// first violation: unknown day or zone, out-of-range time component, a day
// missing from the week, or a day whose segments do not tile exactly 24
// hours without gaps or overlaps.
func New(prices []string, timeZone string) (*Schedule, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
	}

	days := make(map[time.Weekday][]segment)
	for _, line := range prices {
		seg, segDays, err := parseSegment(line)
		if err != nil {
			return nil, err
		}
		for _, day := range segDays {
			days[day] = append(days[day], seg)
		}
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		segs, ok := days[day]
		if !ok {
			return nil, fmt.Errorf("fixed price data does not cover the entire week: %s missing", day)
		}
		sorted, err := validateDay(day, segs)
		if err != nil {
			return nil, err
		}
		days[day] = sorted
	}

	return &Schedule{days: days, loc: loc}, nil
}

func parseSegment(line string) (segment, []time.Weekday, error) {
	match := segmentExpr.FindStringSubmatch(line)
	if match == nil {
		return segment{}, nil, fmt.Errorf("failed to parse fixed price: %q", line)
	}

	days, err := parseDays(match[1])
	if err != nil {
		return segment{}, nil, err
	}

	value, err := decimal.NewFromString(match[6])
	if err != nil {
		return segment{}, nil, fmt.Errorf("failed to parse fixed price value: %q", match[6])
	}

	if match[2] == "" {
		return segment{start: 0, end: minutesPerDay, fullDay: true, value: value}, days, nil
	}

	fromHour, err := parseUnit(match[2], "hour", 23)
	if err != nil {
		return segment{}, nil, err
	}
	fromMinute, err := parseUnit(match[3], "minute", 59)
	if err != nil {
		return segment{}, nil, err
	}
	toHour, err := parseUnit(match[4], "hour", 23)
	if err != nil {
		return segment{}, nil, err
	}
	toMinute, err := parseUnit(match[5], "minute", 59)
	if err != nil {
		return segment{}, nil, err
	}

	seg := segment{
		start: fromHour*60 + fromMinute,
		end:   toHour*60 + toMinute,
		value: value,
	}
	// An end of 00:00 means end of day, not a wrap into the next one.
	if seg.end == 0 {
		seg.end = minutesPerDay
	} else if seg.end <= seg.start {
		seg.end += minutesPerDay
		seg.wraps = true
	}
	return seg, days, nil
}

func parseUnit(raw, unit string, max int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > max {
		return 0, fmt.Errorf("%s out of range: %q", unit, raw)
	}
	return v, nil
}

func parseDays(expr string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, token := range strings.Split(expr, ",") {
		if from, to, ok := strings.Cut(token, "-"); ok {
			start, err := parseDay(from)
			if err != nil {
				return nil, err
			}
			end, err := parseDay(to)
			if err != nil {
				return nil, err
			}
			// Ranges may wrap past Sunday, e.g. Fri-Mon.
			for day := start; ; day = (day + 1) % 7 {
				days = append(days, day)
				if day == end {
					break
				}
			}
		} else {
			day, err := parseDay(token)
			if err != nil {
				return nil, err
			}
			days = append(days, day)
		}
	}
	return days, nil
}

func parseDay(token string) (time.Weekday, error) {
	switch strings.ToLower(token) {
	case "mon":
		return time.Monday, nil
	case "tue":
		return time.Tuesday, nil
	case "wed":
		return time.Wednesday, nil
	case "thu":
		return time.Thursday, nil
	case "fri":
		return time.Friday, nil
	case "sat":
		return time.Saturday, nil
	case "sun":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("invalid day: %q", token)
	}
}

func validateDay(day time.Weekday, segs []segment) ([]segment, error) {
	for _, seg := range segs {
		if seg.fullDay && len(segs) > 1 {
			return nil, fmt.Errorf("%s has a full-day price alongside other segments", day)
		}
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].start < segs[j].start })

	total := 0
	for i, seg := range segs {
		total += seg.end - seg.start
		if i == 0 {
			continue
		}
		if segs[i-1].end%minutesPerDay != seg.start {
			return nil, fmt.Errorf("%s prices are not continuous", day)
		}
	}
	if total < minutesPerDay {
		return nil, fmt.Errorf("%s prices do not cover the full 24 hours", day)
	}
	if total > minutesPerDay {
		return nil, fmt.Errorf("%s prices cover more than 24 hours", day)
	}
	return segs, nil
}
