/*
Copyright © 2021 the TagTools authors.
This file is part of TagTools.

TagTools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

TagTools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with TagTools.  If not, see <http://www.gnu.org/licenses/>.
*/

package tagtools

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// unixEpochDatenum is the serial day number of 1970-01-01.
const unixEpochDatenum = 719529

// TimeToDatenum returns the serial day number of t: the whole and
// fractional number of days since January 0 of year 0 in the proleptic
// ISO calendar.
func TimeToDatenum(t time.Time) float64 {
	sec := float64(t.Unix()) + float64(t.Nanosecond())*1e-9
	return sec/86400 + unixEpochDatenum
}

// DatenumToTime converts a serial day number to a UTC time, rounded to
// the nearest microsecond.
func DatenumToTime(dn float64) time.Time {
	us := math.Round((dn - unixEpochDatenum) * 86400e6)
	return time.UnixMicro(int64(us)).UTC()
}

// commonLayouts are tried in order when no date format is given.
var commonLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"02.01.2006 15:04:05",
	"Jan 2 2006 15:04:05",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
}

// ParseDatestr parses s using a datestr format such as
// "dd-mm-yyyy HH:MM:SS". If format is empty a number of common formats
// are tried. Times are in UTC.
func ParseDatestr(s, format string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if format != "" {
		layout, err := DatestrToLayout(format)
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("tagtools: parsing date %q: %w", s, err)
		}
		return t, nil
	}
	for _, l := range commonLayouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("tagtools: unrecognized date %q: %w", s, ErrInvalidArgument)
}

// FormatDatestr formats t using a datestr format.
func FormatDatestr(t time.Time, format string) (string, error) {
	layout, err := DatestrToLayout(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// Datenum parses s with the given datestr format, which may be empty,
// and returns its serial day number.
func Datenum(s, format string) (float64, error) {
	t, err := ParseDatestr(s, format)
	if err != nil {
		return 0, err
	}
	return TimeToDatenum(t), nil
}

// StartTime returns the device start time recorded in deployment
// metadata. The time is parsed with the dephist_device_regset format
// when that is present.
func StartTime(info Attributes) (time.Time, error) {
	s := strings.TrimSpace(info.String("dephist_device_datetime_start"))
	if s == "" || strings.EqualFold(s, "UNKNOWN") {
		return time.Time{}, fmt.Errorf("tagtools: no valid start time in deployment metadata: %w", ErrNotFound)
	}
	if f := info.String("dephist_device_regset"); f != "" {
		if t, err := ParseDatestr(s, f); err == nil {
			return t, nil
		}
	}
	return ParseDatestr(s, "")
}
