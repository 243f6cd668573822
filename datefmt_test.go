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
	"errors"
	"math"
	"testing"
	"time"
)

func TestDatestrToStrftime(t *testing.T) {
	tests := []struct{ datestr, strftime string }{
		{"dd-mmm-yyyy HH:MM:SS", "%d-%b-%Y %H:%M:%S"},
		{"yyyy-mm-dd HH:MM:SS.fff", "%Y-%m-%d %H:%M:%S.%f"},
		{"dd/mm/yy", "%d/%m/%y"},
		{"dddd, mmmm dd, yyyy", "%A, %B %d, %Y"},
		{"ddd mm.dd", "%a %m.%d"},
		{"HH:MM PM", "%I:%M %p"},
		{"HH:MM AM", "%I:%M %p"},
	}
	for _, test := range tests {
		t.Run(test.datestr, func(t *testing.T) {
			if got := DatestrToStrftime(test.datestr, quietLog()); got != test.strftime {
				t.Errorf("%s != %s", got, test.strftime)
			}
		})
	}
}

func TestStrftimeToDatestr(t *testing.T) {
	tests := []struct{ strftime, datestr string }{
		{"%d-%b-%Y %H:%M:%S", "dd-mmm-yyyy HH:MM:SS"},
		{"%I:%M %p", "HH:MM PM"},
		{"%w", "d"},
		{"%A %B", "dddd mmmm"},
	}
	for _, test := range tests {
		if got := StrftimeToDatestr(test.strftime, quietLog()); got != test.datestr {
			t.Errorf("%s: %s != %s", test.strftime, got, test.datestr)
		}
	}
}

func TestDateFormatRoundTrip(t *testing.T) {
	for _, f := range []string{
		"yyyy-mm-dd HH:MM:SS.fff",
		"dd-mmm-yyyy HH:MM:SS",
		"dd/mm/yy HH:MM",
		"dddd mmmm dd, yyyy",
		"ddd, dd mmm yyyy",
		"HH:MM:SS PM",
	} {
		py := DatestrToStrftime(f, quietLog())
		if back := StrftimeToDatestr(py, quietLog()); back != f {
			t.Errorf("%s -> %s -> %s", f, py, back)
		}
	}
}

func TestStrftimeToLayout(t *testing.T) {
	ref := time.Date(2021, time.July, 5, 14, 3, 9, 123456000, time.UTC)
	tests := []struct{ format, want string }{
		{"%d-%b-%Y %H:%M:%S", "05-Jul-2021 14:03:09"},
		{"%Y/%m/%d %I:%M %p", "2021/07/05 02:03 PM"},
		{"%H:%M:%S.%f", "14:03:09.123456"},
		{"%A %B %y", "Monday July 21"},
	}
	for _, test := range tests {
		l, err := StrftimeToLayout(test.format)
		if err != nil {
			t.Fatal(err)
		}
		if got := ref.Format(l); got != test.want {
			t.Errorf("%s: %s != %s", test.format, got, test.want)
		}
	}
	if _, err := StrftimeToLayout("%w"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("%%w: %v", err)
	}
	if _, err := StrftimeToLayout("%S%f"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("%%f: %v", err)
	}
	for _, f := range []string{"%H:%M 2", "%Y Jan", "%d Mon", "%H PM", "day1 %d"} {
		if _, err := StrftimeToLayout(f); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: %v", f, err)
		}
	}
	l, err := StrftimeToLayout("%Y-%m-%dT%H:%M 100%%")
	if err == nil {
		t.Errorf("literal digits accepted: %s", l)
	}
	if l, err = StrftimeToLayout("day %d at %H%%"); err != nil {
		t.Fatal(err)
	}
	if got := ref.Format(l); got != "day 05 at 14%" {
		t.Errorf("literal text: %s", got)
	}
}

func TestDatenum(t *testing.T) {
	tests := []struct {
		s, format string
		want      float64
	}{
		{"01-Jan-2000", "dd-mmm-yyyy", 730486},
		{"1970-01-01 12:00:00", "", 719529.5},
		{"30-07-2016 09:11:17.5", "dd-mm-yyyy HH:MM:SS", 736541 + (9*3600+11*60+17.5)/86400},
	}
	for _, test := range tests {
		got, err := Datenum(test.s, test.format)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-test.want) > 1e-9 {
			t.Errorf("%s: %f != %f", test.s, got, test.want)
		}
	}
	tm := DatenumToTime(730486.25)
	if want := time.Date(2000, 1, 1, 6, 0, 0, 0, time.UTC); !tm.Equal(want) {
		t.Errorf("%v != %v", tm, want)
	}
}

func TestStartTime(t *testing.T) {
	info := Attributes{
		"dephist_device_datetime_start": "05-07-2021 14:03:09",
		"dephist_device_regset":         "dd-mm-yyyy HH:MM:SS",
	}
	st, err := StartTime(info)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2021, time.July, 5, 14, 3, 9, 0, time.UTC); !st.Equal(want) {
		t.Errorf("%v != %v", st, want)
	}
	if _, err := StartTime(Attributes{"dephist_device_datetime_start": "UNKNOWN"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown: %v", err)
	}
}
