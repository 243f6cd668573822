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
	"strings"

	"github.com/sirupsen/logrus"
)

// Two date format vocabularies are in use in tag metadata. Datestr
// formats use runs of letters, such as "dd-mmm-yyyy HH:MM:SS". Strftime
// formats use percent codes, such as "%d-%b-%Y %H:%M:%S".

func isDateSeparator(c byte) bool {
	switch c {
	case '/', '-', ' ', ':', '.', ',':
		return true
	}
	return false
}

// runLength returns the number of times the byte at s[n] repeats,
// comparing case-insensitively if fold is true.
func runLength(s string, n int, fold bool) int {
	c := s[n]
	l := 1
	for n+l < len(s) {
		d := s[n+l]
		if d != c && !(fold && strings.EqualFold(string(d), string(c))) {
			break
		}
		l++
	}
	return l
}

// DatestrToStrftime converts a datestr format to a strftime format.
// Tokens that have no exact equivalent are approximated and reported
// to log, which may be nil.
func DatestrToStrftime(f string, log logrus.FieldLogger) string {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var b strings.Builder
	ampm := len(f) >= 2 && (strings.EqualFold(f[len(f)-2:], "AM") || strings.EqualFold(f[len(f)-2:], "PM"))
	n := 0
	for n < len(f) {
		c := f[n]
		switch {
		case isDateSeparator(c):
			b.WriteByte(c)
			n++
		case c == 'd' || c == 'D':
			l := runLength(f, n, true)
			if l > 4 {
				l = 4
			}
			switch l {
			case 1:
				log.WithField("format", f).Warn("day format using capitalized first letter is not valid: using weekday as a decimal number instead")
				b.WriteString("%w")
			case 2:
				b.WriteString("%d")
			case 3:
				b.WriteString("%a")
			case 4:
				b.WriteString("%A")
			}
			n += l
		case c == 'm':
			l := runLength(f, n, false)
			if l > 4 {
				l = 4
			}
			switch l {
			case 1:
				log.WithField("format", f).Warn("month format using capitalized first letter is not valid: using month as a zero-padded number instead")
				b.WriteString("%m")
			case 2:
				b.WriteString("%m")
			case 3:
				b.WriteString("%b")
			case 4:
				b.WriteString("%B")
			}
			n += l
		case c == 'y' || c == 'Y':
			l := runLength(f, n, true)
			if l > 4 {
				l = 4
			}
			if l == 1 || l == 3 {
				log.WithFields(logrus.Fields{"format": f, "length": l}).Warn("year format should have 2 or 4 letters")
			}
			if l <= 2 {
				b.WriteString("%y")
			} else {
				b.WriteString("%Y")
			}
			n += l
		case c == 'h' || c == 'H':
			if ampm {
				b.WriteString("%I")
			} else {
				b.WriteString("%H")
			}
			n += runLength(f, n, true)
		case c == 'M':
			b.WriteString("%M")
			n += runLength(f, n, false)
		case c == 's' || c == 'S':
			b.WriteString("%S")
			n += runLength(f, n, true)
		case (c == 'f' || c == 'F') && runLength(f, n, true) >= 3:
			b.WriteString("%f")
			n += runLength(f, n, true)
		case n+1 < len(f) && (c == 'A' || c == 'a' || c == 'P' || c == 'p') && (f[n+1] == 'M' || f[n+1] == 'm'):
			b.WriteString("%p")
			n += 2
		default:
			log.WithFields(logrus.Fields{"format": f, "token": string(c)}).Warn("unrecognized date format token: passing it through")
			if c == '%' {
				b.WriteString("%%")
			} else {
				b.WriteByte(c)
			}
			n++
		}
	}
	return b.String()
}

// StrftimeToDatestr converts a strftime format to a datestr format.
func StrftimeToDatestr(f string, log logrus.FieldLogger) string {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var b strings.Builder
	n := 0
	for n < len(f) {
		c := f[n]
		if c != '%' || n+1 == len(f) {
			if !isDateSeparator(c) {
				log.WithFields(logrus.Fields{"format": f, "token": string(c)}).Warn("unrecognized date format token: passing it through")
			}
			b.WriteByte(c)
			n++
			continue
		}
		switch f[n+1] {
		case 'w', 'W':
			log.WithField("format", f).Warn("weekday as a decimal number is not valid: using capitalized first letter instead")
			b.WriteString("d")
		case 'd', 'D':
			b.WriteString("dd")
		case 'a':
			b.WriteString("ddd")
		case 'A':
			b.WriteString("dddd")
		case 'm':
			b.WriteString("mm")
		case 'b':
			b.WriteString("mmm")
		case 'B':
			b.WriteString("mmmm")
		case 'y':
			b.WriteString("yy")
		case 'Y':
			b.WriteString("yyyy")
		case 'I', 'H':
			b.WriteString("HH")
		case 'M':
			b.WriteString("MM")
		case 'S':
			b.WriteString("SS")
		case 'f', 'F':
			b.WriteString("fff")
		case 'p', 'P':
			b.WriteString("PM")
		case '%':
			b.WriteString("%")
		default:
			log.WithFields(logrus.Fields{"format": f, "token": f[n : n+2]}).Warn("unrecognized date format code: dropping it")
		}
		n += 2
	}
	return b.String()
}

var strftimeLayout = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'b': "Jan",
	'B': "January",
	'd': "02",
	'a': "Mon",
	'A': "Monday",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'z': "-0700",
	'Z': "MST",
	'j': "002",
}

// layoutTokens are the literal runs that the time package reads as
// layout elements rather than as text.
var layoutTokens = []string{"Jan", "Mon", "MST", "PM", "pm", "Z07"}

// checkLiteral returns an error if the literal text lit of format f
// would be read as a layout element.
func checkLiteral(f, lit string) error {
	bad := strings.ContainsAny(lit, "0123456789")
	for _, t := range layoutTokens {
		if strings.Contains(lit, t) {
			bad = true
		}
	}
	if bad {
		return fmt.Errorf("tagtools: date format %q: literal text %q collides with a time layout element: %w",
			f, lit, ErrInvalidArgument)
	}
	return nil
}

// StrftimeToLayout converts a strftime format to a layout for the time
// package. Fractional seconds (%f) must follow a '.' or ','. Literal
// text that the time package would read as a layout element, such as
// digits or "Jan", is rejected.
func StrftimeToLayout(f string) (string, error) {
	var b, lit strings.Builder
	flush := func() error {
		if err := checkLiteral(f, lit.String()); err != nil {
			return err
		}
		b.WriteString(lit.String())
		lit.Reset()
		return nil
	}
	for n := 0; n < len(f); n++ {
		c := f[n]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if n+1 == len(f) {
			return "", fmt.Errorf("tagtools: date format %q ends with %%: %w", f, ErrInvalidArgument)
		}
		n++
		if f[n] == '%' {
			lit.WriteByte('%')
			continue
		}
		if err := flush(); err != nil {
			return "", err
		}
		switch f[n] {
		case 'f':
			s := b.String()
			if len(s) == 0 || (s[len(s)-1] != '.' && s[len(s)-1] != ',') {
				return "", fmt.Errorf("tagtools: date format %q: %%f must follow a decimal separator: %w", f, ErrInvalidArgument)
			}
			b.WriteString("000000")
		default:
			l, ok := strftimeLayout[f[n]]
			if !ok {
				return "", fmt.Errorf("tagtools: date format %q: unsupported code %%%c: %w", f, f[n], ErrInvalidArgument)
			}
			b.WriteString(l)
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// DatestrToLayout converts a datestr format to a layout for the time
// package.
func DatestrToLayout(f string) (string, error) {
	return StrftimeToLayout(DatestrToStrftime(f, nil))
}
