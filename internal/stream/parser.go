// Package stream parses the backend's chunked chat stream into typed frames
// and aggregates the citations it carries.
package stream

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
)

// Parser turns raw, arbitrarily chunked stream text into an ordered sequence
// of frames. Reads may split a record anywhere; the parser keeps the trailing
// incomplete segment buffered until the rest arrives. A malformed record is
// dropped with a diagnostic and never aborts the stream.
type Parser struct {
	carry  string
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger.With(slog.String("module", "stream")),
	}
}

// Feed consumes one raw chunk and returns the frames completed by it, in
// arrival order.
func (p *Parser) Feed(chunk string) []models.Frame {
	data := p.carry + chunk
	parts := strings.Split(data, models.RecordSeparator)

	// The final segment may be an incomplete record; hold it back.
	p.carry = parts[len(parts)-1]

	var frames []models.Frame
	for _, rec := range parts[:len(parts)-1] {
		if frame, ok := p.parseRecord(rec); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

// Flush parses whatever remains buffered. Call once at end of stream; a
// well-formed stream ends on a record boundary, but a final record without a
// trailing separator is still honored.
func (p *Parser) Flush() []models.Frame {
	rec := p.carry
	p.carry = ""

	frame, ok := p.parseRecord(rec)
	if !ok {
		return nil
	}
	return []models.Frame{frame}
}

// parseRecord parses one complete record. The boolean is false for keep-alive
// records and records dropped on a parse failure.
func (p *Parser) parseRecord(rec string) (models.Frame, bool) {
	rec = strings.TrimSpace(rec)
	if rec == "" {
		// keep-alive
		return nil, false
	}

	payload, found := strings.CutPrefix(rec, models.DataPrefix)
	if !found {
		p.dropRecord("missing data prefix", rec)
		return nil, false
	}

	if !gjson.Valid(payload) {
		p.dropRecord("envelope is not valid JSON", rec)
		return nil, false
	}

	chunk := gjson.Get(payload, "chunk")
	if !chunk.Exists() {
		p.dropRecord("envelope has no chunk field", rec)
		return nil, false
	}

	text := chunk.String()
	if text == "" {
		return nil, false
	}

	if inner, ok := cutSentinels(text); ok {
		return p.parseCitations(inner)
	}
	return models.TextDelta{Text: text}, true
}

// parseCitations decodes the sentinel-wrapped citation array. A failure here
// drops only this payload, not the enclosing stream.
func (p *Parser) parseCitations(inner string) (models.Frame, bool) {
	var citations []models.Citation
	if err := json.Unmarshal([]byte(inner), &citations); err != nil {
		perr := apierrors.NewCitationParseError("invalid sources payload", err)
		p.logger.Warn("dropping citation payload", slog.String("error", perr.Error()))
		return nil, false
	}
	return models.CitationBundle{Citations: citations}, true
}

func (p *Parser) dropRecord(reason, rec string) {
	perr := apierrors.NewStreamParseError(reason, rec)
	p.logger.Warn("dropping stream record",
		slog.String("error", perr.Error()),
		slog.Int("length", len(rec)),
	)
}

// cutSentinels returns the text between the sources markers, and whether the
// chunk is a citation payload at all.
func cutSentinels(s string) (string, bool) {
	if len(s) < len(models.SourcesStart)+len(models.SourcesEnd) {
		return "", false
	}
	if !strings.HasPrefix(s, models.SourcesStart) || !strings.HasSuffix(s, models.SourcesEnd) {
		return "", false
	}
	inner := s[len(models.SourcesStart) : len(s)-len(models.SourcesEnd)]
	return inner, true
}
