package importer

import (
	"log/slog"

	"github.com/varanine/daqfile/dataset"
	"github.com/varanine/daqfile/ebml"
)

// dataReader tracks the data phase's position: the session blocks are
// currently appended to and the running block count.
type dataReader struct {
	ds        *dataset.Dataset
	logger    *slog.Logger
	sessionID int
	blocks    int
}

// handleRoot processes one root element of the data phase. Malformed
// data blocks are logged and skipped; the walk continues with the next
// root.
func (r *dataReader) handleRoot(root *ebml.Element) {
	switch root.ID() {
	case ebml.IDSessionHeader:
		r.switchSession(root)
	case ebml.IDChannelDataBlock:
		r.appendBlock(root)
	}
}

func (r *dataReader) switchSession(root *ebml.Element) {
	children, err := root.Children()
	if err != nil {
		return
	}
	for _, el := range children {
		if el.ID() != ebml.IDSessionID {
			continue
		}
		v, err := el.Uint()
		if err != nil {
			return
		}
		r.sessionID = int(v)
		return
	}
}

func (r *dataReader) appendBlock(root *ebml.Element) {
	children, err := root.Children()
	if err != nil {
		r.logger.Warn("unreadable data block skipped",
			slog.Int64("offset", root.Offset()),
			slog.Any("error", err))
		return
	}

	channelID := -1
	var rawStart, rawEnd int64
	hasEnd := false
	var payload []byte
	havePayload := false

	for _, el := range children {
		switch el.ID() {
		case ebml.IDBlockChannelIDRef:
			v, err := el.Uint()
			if err != nil {
				r.skip(root, "channel ref", err)
				return
			}
			channelID = int(v)
		case ebml.IDBlockStartTimeCode:
			v, err := el.Uint()
			if err != nil {
				r.skip(root, "start time code", err)
				return
			}
			rawStart = int64(v)
		case ebml.IDBlockEndTimeCode:
			v, err := el.Uint()
			if err != nil {
				r.skip(root, "end time code", err)
				return
			}
			rawEnd = int64(v)
			hasEnd = true
		case ebml.IDBlockPayload:
			payload, err = el.Payload()
			if err != nil {
				r.skip(root, "payload", err)
				return
			}
			havePayload = true
		}
	}

	if channelID < 0 || !havePayload {
		r.skip(root, "incomplete block", nil)
		return
	}

	ch, ok := r.ds.Channel(channelID)
	if !ok {
		r.logger.Warn("data block for undeclared channel skipped",
			slog.Int("channel", channelID),
			slog.Int64("offset", root.Offset()))
		return
	}

	ch.AppendBlock(r.sessionID, rawStart, rawEnd, hasEnd, payload)
	r.blocks++
}

func (r *dataReader) skip(root *ebml.Element, what string, err error) {
	r.logger.Warn("malformed data block skipped",
		slog.String("field", what),
		slog.Int64("offset", root.Offset()),
		slog.Any("error", err))
}
