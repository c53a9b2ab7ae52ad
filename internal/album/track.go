package album

import (
	"fmt"
	"strconv"
	"strings"
)

// trackFieldCount is the fixed arity of one metadata line.
const trackFieldCount = 16

// TrackRecord is one audio track's metadata, parsed from one tab-delimited
// sidecar line. Field order is fixed and positional.
type TrackRecord struct {
	Title          string
	Artist         string
	TrackNum       int
	TrackLength    string // mm:ss, kept opaque
	Composer       string
	AlbumTitle     string
	AlbumArtist    string
	AlbumComposer  string
	AlbumInterpret string
	Year           int
	Genre          string
	Comment        string
	NumTracks      int
	TrackOffset    int
	CDDBType       string
	CDDBID         string
}

// ParseError reports a malformed metadata line.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

// ParseTrackRecord parses one sidecar line. Trailing newline and trailing
// tab characters are stripped before splitting; anything other than exactly
// 16 tab-separated fields fails, as does a non-integer numeric field. No
// record is constructed on failure.
func ParseTrackRecord(line string) (TrackRecord, error) {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimRight(line, "\t")
	fields := strings.Split(line, "\t")
	if len(fields) != trackFieldCount {
		return TrackRecord{}, &ParseError{
			Reason: fmt.Sprintf("expected %d tab-separated fields, found %d", trackFieldCount, len(fields)),
		}
	}

	trackNum, err := parseIntField("track number", fields[2])
	if err != nil {
		return TrackRecord{}, err
	}
	year, err := parseIntField("year", fields[9])
	if err != nil {
		return TrackRecord{}, err
	}
	numTracks, err := parseIntField("track count", fields[12])
	if err != nil {
		return TrackRecord{}, err
	}
	trackOffset, err := parseIntField("track offset", fields[13])
	if err != nil {
		return TrackRecord{}, err
	}

	return TrackRecord{
		Title:          fields[0],
		Artist:         fields[1],
		TrackNum:       trackNum,
		TrackLength:    fields[3],
		Composer:       fields[4],
		AlbumTitle:     fields[5],
		AlbumArtist:    fields[6],
		AlbumComposer:  fields[7],
		AlbumInterpret: fields[8],
		Year:           year,
		Genre:          fields[10],
		Comment:        fields[11],
		NumTracks:      numTracks,
		TrackOffset:    trackOffset,
		CDDBType:       fields[14],
		CDDBID:         fields[15],
	}, nil
}

func parseIntField(name, value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("%s %q is not an integer", name, value)}
	}
	return parsed, nil
}
