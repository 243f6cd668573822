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

// Package tagtools reads, writes and manipulates animal-borne tag sensor
// recordings stored as NetCDF archives. It also ingests raw instrument
// formats (DTAG XML and WAV cue tables, CATS CSV logs), converts between
// date format vocabularies and plots time-aligned multi-sensor panels.
package tagtools

import "errors"

// Version gives the version number.
const Version = "1.0.0"

// InfoName is the reserved name of the deployment metadata record.
const InfoName = "info"

var (
	// ErrNotFound is returned when an archive, raw file or lookup
	// entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDepIDMismatch is returned when a record would be written to an
	// archive that belongs to a different deployment.
	ErrDepIDMismatch = errors.New("deployment identifier mismatch")

	// ErrReservedName is returned on attempts to remove the info record.
	ErrReservedName = errors.New("reserved record name")

	// ErrNoVariable is returned when removing a variable that is not in
	// the archive.
	ErrNoVariable = errors.New("no such variable")

	// ErrDeclined is returned when the user refuses to overwrite an
	// existing variable.
	ErrDeclined = errors.New("overwrite declined")

	// ErrSampling is returned when sensor records have the wrong or
	// incompatible sampling.
	ErrSampling = errors.New("incompatible sampling")

	// ErrInvalidArgument is returned when a required argument is missing
	// or invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoSampleRate is returned when a cue table cannot be built because
	// the sampling rate could not be determined.
	ErrNoSampleRate = errors.New("sampling rate not found")
)
