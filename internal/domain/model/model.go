// Package model contains the domain records the pipeline is built from.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Rating scale of the source platform. Endorsement ratings outside this
// range are malformed.
const (
	MinRating = -10
	MaxRating = 10
)

// Endorsement is one directed, signed, timestamped rating event.
type Endorsement struct {
	Source string    // rater id
	Target string    // rated id
	Rating int       // signed weight within [MinRating, MaxRating]
	TS     time.Time // event time
}

// Validate reports whether the endorsement is well formed.
func (e Endorsement) Validate() error {
	switch {
	case e.Source == "":
		return wrapMalformed("empty source id")
	case e.Target == "":
		return wrapMalformed("empty target id")
	case e.Source == e.Target:
		return wrapMalformed("self endorsement")
	case e.Rating < MinRating || e.Rating > MaxRating:
		return wrapMalformed("rating out of range")
	case e.TS.IsZero():
		return wrapMalformed("zero timestamp")
	}
	return nil
}

// recordFieldCount is the arity of a raw input row:
// source_id, target_id, rating, timestamp.
const recordFieldCount = 4

// ParseRecord parses one raw tabular record into an Endorsement.
// The timestamp field is Unix epoch seconds.
func ParseRecord(fields []string) (Endorsement, error) {
	if len(fields) != recordFieldCount {
		return Endorsement{}, wrapMalformed("want 4 fields, got " + strconv.Itoa(len(fields)))
	}

	source := strings.TrimSpace(fields[0])
	target := strings.TrimSpace(fields[1])

	rating, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return Endorsement{}, wrapMalformed("unparsable rating " + strconv.Quote(fields[2]))
	}

	epoch, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return Endorsement{}, wrapMalformed("unparsable timestamp " + strconv.Quote(fields[3]))
	}

	e := Endorsement{
		Source: source,
		Target: target,
		Rating: rating,
		TS:     time.Unix(epoch, 0).UTC(),
	}
	if err := e.Validate(); err != nil {
		return Endorsement{}, err
	}
	return e, nil
}
