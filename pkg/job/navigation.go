package job

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// View is a page the user is sent to
type View string

const (
	ViewWaiting View = "waiting"
	ViewResults View = "results"
	ViewError   View = "error"
)

// ErrorID selects the message on the error view
type ErrorID int

const (
	ErrorUnavailable ErrorID = 1
	ErrorGeneration  ErrorID = 2
	ErrorTimeout     ErrorID = 3
)

var errorMessages = map[ErrorID]string{
	ErrorUnavailable: "The backend server is not available right now. Please try again later.",
	ErrorGeneration:  "An error has occurred while trying to generate your Melody. Please try again.",
	ErrorTimeout:     "Your Melody could not be generated. Please try again.",
}

// Message is the user-facing text for the error
func (e ErrorID) Message() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

// ShowsSongID reports whether the error view displays the generation id.
// When the backend was never reached there is no id worth showing.
func (e ErrorID) ShowsSongID() bool {
	return e != ErrorUnavailable
}

// ParseErrorID reads an errorId query value
func ParseErrorID(s string) (ErrorID, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	id := ErrorID(n)
	_, ok := errorMessages[id]
	return id, ok
}

// Destination is where a finished workflow sends the user
type Destination struct {
	View    View
	SongID  string
	ErrorID ErrorID
}

// WaitingFor is the polling view for a freshly submitted job
func WaitingFor(songID string) Destination {
	return Destination{View: ViewWaiting, SongID: songID}
}

// ResultsFor is the results view for a completed job
func ResultsFor(songID string) Destination {
	return Destination{View: ViewResults, SongID: songID}
}

// ErrorFor is the error view; songID may be empty
func ErrorFor(id ErrorID, songID string) Destination {
	return Destination{View: ViewError, SongID: songID, ErrorID: id}
}

// URL renders the destination as a site-relative path with its query
func (d Destination) URL() string {
	q := url.Values{}
	switch d.View {
	case ViewWaiting:
		q.Set("songId", d.SongID)
	case ViewResults:
		q.Set("song_id", d.SongID)
	case ViewError:
		q.Set("errorId", strconv.Itoa(int(d.ErrorID)))
		if d.SongID != "" {
			q.Set("songId", d.SongID)
		}
	}
	return "/" + string(d.View) + "?" + q.Encode()
}

// ErrNoSongID means the query string carried no job identifier
var ErrNoSongID = errors.New("no song id in query")

// ParseSongID recovers the job id from a query string, accepting both
// songId and song_id so a reloaded page can resume polling.
func ParseSongID(rawQuery string) (string, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return "", err
	}
	for _, key := range []string{"songId", "song_id"} {
		if id := strings.TrimSpace(q.Get(key)); id != "" {
			return id, nil
		}
	}
	return "", ErrNoSongID
}

// Navigator receives the terminal destination of a workflow
type Navigator interface {
	Navigate(d Destination)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(d Destination)

func (f NavigatorFunc) Navigate(d Destination) {
	f(d)
}
