package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/hako/durafmt"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/grid"
	"github.com/james-see/rollgen/pkg/job"
	"github.com/james-see/rollgen/pkg/melody"
	"github.com/james-see/rollgen/pkg/session"
)

// EncodeRequest is the body of POST /api/v1/encode
type EncodeRequest struct {
	Grid *grid.Grid `json:"grid" binding:"required"`
	BPM  int        `json:"bpm" binding:"omitempty,min=30,max=300"`
}

// GenerateRequest is the body of POST /api/v1/generate. Omitted parameters
// take the composer defaults.
type GenerateRequest struct {
	Grid         *grid.Grid `json:"grid" binding:"required"`
	Temperature  *float64   `json:"temperature" binding:"omitempty,min=0,max=1"`
	OutputLength *int       `json:"output_length" binding:"omitempty,min=1,max=16"`
}

// clientRequest fills omitted parameters with the composer defaults. Binding
// has already range-checked the rest.
func (r GenerateRequest) clientRequest() client.Request {
	req := client.Request{
		Sequence:     melody.Sequence(melody.Encode(r.Grid)),
		Temperature:  session.DefaultTemperature,
		OutputLength: session.DefaultOutputLength,
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.OutputLength != nil {
		req.OutputLength = *r.OutputLength
	}
	return req
}

// GenerateResponse tells the browser where to go next
type GenerateResponse struct {
	Message  string `json:"message,omitempty"`
	SongID   string `json:"song_id,omitempty"`
	Redirect string `json:"redirect"`
	Error    string `json:"error,omitempty"`
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "rollgen",
	})
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "rollgen"})
}

// listPitches godoc
// @Summary List grid pitches
// @Description Returns the pitch of every grid row, top row first
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/pitches [get]
func listPitches(c *gin.Context) {
	pitches := grid.Pitches()
	rows := make([]gin.H, len(pitches))
	for i, p := range pitches {
		rows[i] = gin.H{"row": i, "name": p.Name, "note": p.Note}
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":    grid.DefaultRows,
		"columns": grid.DefaultColumns,
		"pitches": rows,
	})
}

// encode godoc
// @Summary Encode a grid as MIDI
// @Description Converts a piano-roll grid into a Standard MIDI File, one quarter note per column
// @Tags melody
// @Accept json
// @Produce audio/midi
// @Param request body EncodeRequest true "Grid and tempo"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/encode [post]
func (s *Server) encode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bpm := req.BPM
	if bpm == 0 {
		bpm = melody.DefaultBPM
	}

	data, err := s.writer.WriteMIDI(melody.EncodeTrack(req.Grid, bpm))
	if err != nil {
		logger.Error("Failed to encode MIDI", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=melody.mid")
	c.Data(http.StatusOK, "audio/midi", data)
}

// generate godoc
// @Summary Submit a melody for generation
// @Description Sends the grid to the generation service and returns the waiting view to poll
// @Tags melody
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Grid and generation parameters"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} GenerateResponse
// @Failure 502 {object} GenerateResponse
// @Router /api/v1/generate [post]
func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := s.backend.Submit(c.Request.Context(), req.clientRequest())
	if err != nil {
		fields := logger.WithContext(c)
		if errors.Is(err, client.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, GenerateResponse{Error: err.Error()})
			return
		}
		logger.Error("Generation submit failed", err, fields)
		c.JSON(http.StatusBadGateway, GenerateResponse{
			Error:    job.ErrorUnavailable.Message(),
			Redirect: job.ErrorFor(job.ErrorUnavailable, "").URL(),
		})
		return
	}

	fields := logger.WithContext(c)
	fields["song_id"] = sub.SongID
	logger.Info("Generation submitted", fields)

	c.JSON(http.StatusOK, GenerateResponse{
		Message:  sub.Message,
		SongID:   sub.SongID,
		Redirect: job.WaitingFor(sub.SongID).URL(),
	})
}

// status godoc
// @Summary Check a generation job
// @Description Proxies the generation service's status for a job
// @Tags melody
// @Produce json
// @Param songId path string true "Generation id"
// @Success 200 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/status/{songId} [get]
func (s *Server) status(c *gin.Context) {
	songID := c.Param("songId")
	status, err := s.backend.Status(c.Request.Context(), songID)
	if err != nil {
		fields := logger.WithContext(c)
		fields["song_id"] = songID
		logger.Warn("Status check failed", fields)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "song_id": songID})
		return
	}
	state := job.Pending
	switch status {
	case job.StatusComplete:
		state = job.Complete
	case job.StatusFailed:
		state = job.Failed
	}
	c.JSON(http.StatusOK, gin.H{
		"song_id": songID,
		"status":  status,
		"state":   state.String(),
	})
}

// waiting polls the job on behalf of the browser and redirects once it
// settles. Reloading the page starts a fresh run from attempt zero.
func (s *Server) waiting(c *gin.Context) {
	songID, _ := job.ParseSongID(c.Request.URL.RawQuery)

	nav := job.NavigatorFunc(func(d job.Destination) {
		c.Redirect(http.StatusSeeOther, d.URL())
	})
	poller := job.NewPoller(s.backend, job.WithPolicy(s.policy), job.WithNavigator(nav))

	if _, err := poller.Run(c.Request.Context(), songID); errors.Is(err, job.ErrCancelled) {
		// client went away
		c.Abort()
	}
}

func (s *Server) results(c *gin.Context) {
	songID, err := job.ParseSongID(c.Request.URL.RawQuery)
	if err != nil {
		c.Redirect(http.StatusSeeOther, job.ErrorFor(job.ErrorUnavailable, "").URL())
		return
	}

	c.HTML(http.StatusOK, "results.html", gin.H{
		"Title":       "Your melody is ready",
		"SongID":      songID,
		"DownloadURL": s.backend.DownloadURL(songID),
		"Summary":     s.summarize(c, songID),
	})
}

// summarize fetches the generated file and describes it. A failure only
// costs the summary; the download link is still shown.
func (s *Server) summarize(c *gin.Context, songID string) *resultsSummary {
	var buf bytes.Buffer
	n, err := s.backend.Download(c.Request.Context(), songID, &buf)
	fields := logger.WithContext(c)
	fields["song_id"] = songID
	if err != nil {
		fields["error"] = err.Error()
		logger.Warn("Could not fetch generated melody", fields)
		return nil
	}
	sum, err := s.writer.ReadMIDI(buf.Bytes())
	if err != nil {
		fields["error"] = err.Error()
		logger.Warn("Generated melody is not a readable MIDI file", fields)
		return nil
	}
	return &resultsSummary{
		Notes:  len(sum.Notes),
		BPM:    fmt.Sprintf("%.0f", sum.BPM),
		Length: durafmt.Parse(sum.Duration()).LimitFirstN(2).String(),
		Size:   humanize.Bytes(uint64(n)),
	}
}

func (s *Server) errorView(c *gin.Context) {
	id, ok := job.ParseErrorID(c.Query("errorId"))
	status := http.StatusOK
	if !ok {
		status = http.StatusBadRequest
	}

	data := gin.H{
		"Title":   "Something went wrong",
		"Message": id.Message(),
	}
	if ok && id.ShowsSongID() {
		data["SongID"] = c.Query("songId")
	}
	c.HTML(status, "error.html", data)
}
