package importer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/varanine/daqfile/dataset"
	"github.com/varanine/daqfile/ebml"
	"github.com/varanine/daqfile/format"
	"github.com/varanine/daqfile/transform"
)

// calKind tags one parsed calibration definition.
type calKind uint8

const (
	calUnivariate calKind = iota
	calBivariate
	calCombined
	calPolyPoly
)

// calDef is one calibration element, parsed but not yet registered.
// Registration happens after the whole header walk so definitions may
// reference channels and transforms declared later in the file.
type calDef struct {
	kind       calKind
	handle     int
	coeffs     []float64
	cols       int
	refChannel int
	refSub     int
	members    []int
	outer      []float64
}

type headerParser struct {
	ds     *dataset.Dataset
	logger *slog.Logger
	cals   []calDef

	// Axis transform handles per channel, for resolving a bivariate's
	// reference transform at registration time.
	axisHandles map[int][]int
}

func (h *headerParser) handleRoot(root *ebml.Element) error {
	switch root.ID() {
	case ebml.IDRecordingProperties:
		return h.parseProperties(root)
	case ebml.IDTimeBaseUTC:
		return h.parseTimeBase(root)
	case ebml.IDSensorList:
		return h.parseSensorList(root)
	case ebml.IDChannelList:
		return h.parseChannelList(root)
	case ebml.IDCalibrationList:
		return h.parseCalibrationList(root)
	case ebml.IDSessionHeader:
		return h.parseSessionHeader(root)
	case ebml.IDSessionFooter:
		return h.parseSessionFooter(root)
	case ebml.IDChannelDataBlock:
		// Data phase; OpenHeader leaves blocks untouched.
		return nil
	default:
		h.logger.Debug("skipping root element",
			slog.String("name", root.Name()),
			slog.Int64("offset", root.Offset()))
		return nil
	}
}

func (h *headerParser) parseProperties(root *ebml.Element) error {
	children, err := root.Children()
	if err != nil {
		return err
	}

	var props dataset.RecorderProperties
	for _, el := range children {
		switch el.ID() {
		case ebml.IDRecorderTypeUID:
			props.TypeUID, err = el.Uint()
		case ebml.IDRecorderSerial:
			props.Serial, err = el.Uint()
		case ebml.IDRecorderName:
			props.Name, err = el.StringValue()
		case ebml.IDProductName:
			props.ProductName, err = el.StringValue()
		case ebml.IDHwRev:
			props.HwRev, err = el.Uint()
		case ebml.IDFwRev:
			props.FwRev, err = el.Uint()
		case ebml.IDDateCreated:
			props.DateCreated, err = dateValue(el)
		}
		if err != nil {
			return fmt.Errorf("failed to parse recording properties: %w", err)
		}
	}

	h.ds.SetProperties(props)
	return nil
}

func (h *headerParser) parseTimeBase(root *ebml.Element) error {
	t, err := dateValue(root)
	if err != nil {
		return fmt.Errorf("failed to parse time base: %w", err)
	}
	h.ds.SetTimeBaseUTC(t)
	return nil
}

func (h *headerParser) parseSensorList(root *ebml.Element) error {
	entries, err := root.Children()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.ID() != ebml.IDSensorEntry {
			continue
		}
		children, err := entry.Children()
		if err != nil {
			return err
		}

		id := -1
		var name, trace string
		for _, el := range children {
			switch el.ID() {
			case ebml.IDSensorID:
				v, err := el.Uint()
				if err != nil {
					return err
				}
				id = int(v)
			case ebml.IDSensorName:
				name, err = el.StringValue()
			case ebml.IDSensorTraceability:
				trace, err = el.StringValue()
			}
			if err != nil {
				return err
			}
		}
		if id < 0 {
			h.logger.Warn("sensor entry without id skipped",
				slog.Int64("offset", entry.Offset()))
			continue
		}
		if _, err := h.ds.AddSensor(id, name, trace); err != nil {
			return err
		}
	}
	return nil
}

func (h *headerParser) parseChannelList(root *ebml.Element) error {
	entries, err := root.Children()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.ID() != ebml.IDChannelEntry {
			continue
		}
		if err := h.parseChannelEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (h *headerParser) parseChannelEntry(entry *ebml.Element) error {
	children, err := entry.Children()
	if err != nil {
		return err
	}

	cfg := dataset.ChannelConfig{
		ID:          -1,
		SensorID:    -1,
		Compression: format.CompressionNone,
	}
	// Track which sub-channels declared their own transform; the rest
	// inherit the channel-level handle once it is known.
	var subHasTransform []bool

	for _, el := range children {
		switch el.ID() {
		case ebml.IDChannelID:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			cfg.ID = int(v)
		case ebml.IDChannelName:
			cfg.Name, err = el.StringValue()
		case ebml.IDChannelSensorRef:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			cfg.SensorID = int(v)
		case ebml.IDChannelFormat:
			cfg.Layout, err = el.StringValue()
		case ebml.IDChannelTransformRef:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			cfg.TransformHandle = int(v)
		case ebml.IDChannelCompression:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			cfg.Compression = format.CompressionType(v)
		case ebml.IDChannelTickModulus:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			cfg.TickModulus = int64(v)
		case ebml.IDSubChannelEntry:
			sub, hasTransform, err := h.parseSubChannelEntry(el)
			if err != nil {
				return err
			}
			cfg.SubChannels = append(cfg.SubChannels, sub)
			subHasTransform = append(subHasTransform, hasTransform)
		}
		if err != nil {
			return fmt.Errorf("failed to parse channel entry: %w", err)
		}
	}

	if cfg.ID < 0 {
		h.logger.Warn("channel entry without id skipped",
			slog.Int64("offset", entry.Offset()))
		return nil
	}
	for i := range cfg.SubChannels {
		if !subHasTransform[i] {
			cfg.SubChannels[i].TransformHandle = cfg.TransformHandle
		}
	}

	ch, err := h.ds.AddChannel(cfg)
	if err != nil {
		return err
	}

	if h.axisHandles == nil {
		h.axisHandles = make(map[int][]int)
	}
	handles := make([]int, 0, len(cfg.SubChannels))
	for _, sub := range cfg.SubChannels {
		handles = append(handles, sub.TransformHandle)
	}
	h.axisHandles[ch.ID()] = handles
	return nil
}

func (h *headerParser) parseSubChannelEntry(entry *ebml.Element) (dataset.SubChannelConfig, bool, error) {
	var sub dataset.SubChannelConfig
	hasTransform := false

	children, err := entry.Children()
	if err != nil {
		return sub, false, err
	}

	for _, el := range children {
		switch el.ID() {
		case ebml.IDSubChannelName:
			sub.Name, err = el.StringValue()
		case ebml.IDSubChannelUnits:
			sub.Units, err = el.StringValue()
		case ebml.IDSubChannelTransformRef:
			v, err := el.Uint()
			if err != nil {
				return sub, false, err
			}
			sub.TransformHandle = int(v)
			hasTransform = true
		case ebml.IDSubChannelRangeLow:
			sub.RangeLow, err = el.Float()
		case ebml.IDSubChannelRangeHigh:
			sub.RangeHigh, err = el.Float()
		case ebml.IDWarningRangeLow:
			sub.WarningLow, err = el.Float()
			sub.HasWarningRange = true
		case ebml.IDWarningRangeHigh:
			sub.WarningHigh, err = el.Float()
			sub.HasWarningRange = true
		}
		if err != nil {
			return sub, false, err
		}
	}
	return sub, hasTransform, nil
}

func (h *headerParser) parseCalibrationList(root *ebml.Element) error {
	entries, err := root.Children()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		var def calDef
		var err error
		switch entry.ID() {
		case ebml.IDUnivariatePoly:
			def, err = parseUnivariate(entry)
		case ebml.IDBivariatePoly:
			def, err = parseBivariate(entry)
		case ebml.IDCombinedPoly:
			def, err = parseCombined(entry)
		case ebml.IDPolyPoly:
			def, err = parsePolyPoly(entry)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to parse calibration %s: %w", entry.Name(), err)
		}
		h.cals = append(h.cals, def)
	}
	return nil
}

func parseUnivariate(entry *ebml.Element) (calDef, error) {
	def := calDef{kind: calUnivariate, handle: -1}

	children, err := entry.Children()
	if err != nil {
		return def, err
	}
	for _, el := range children {
		switch el.ID() {
		case ebml.IDCalID:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.handle = int(v)
		case ebml.IDPolyCoef:
			v, err := el.Float()
			if err != nil {
				return def, err
			}
			def.coeffs = append(def.coeffs, v)
		}
	}
	if def.handle < 0 {
		return def, fmt.Errorf("univariate polynomial without id at offset %d", entry.Offset())
	}
	return def, nil
}

func parseBivariate(entry *ebml.Element) (calDef, error) {
	def := calDef{kind: calBivariate, handle: -1, cols: 1}

	children, err := entry.Children()
	if err != nil {
		return def, err
	}
	for _, el := range children {
		switch el.ID() {
		case ebml.IDBivariateCalID:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.handle = int(v)
		case ebml.IDBivariateCoef:
			v, err := el.Float()
			if err != nil {
				return def, err
			}
			def.coeffs = append(def.coeffs, v)
		case ebml.IDBivariateCols:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.cols = int(v)
		case ebml.IDCalReferenceChannel:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.refChannel = int(v)
		case ebml.IDCalReferenceSubChannel:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.refSub = int(v)
		}
	}
	if def.handle < 0 {
		return def, fmt.Errorf("bivariate polynomial without id at offset %d", entry.Offset())
	}
	if def.cols < 1 {
		def.cols = 1
	}
	return def, nil
}

func parseCombined(entry *ebml.Element) (calDef, error) {
	def := calDef{kind: calCombined, handle: -1}

	children, err := entry.Children()
	if err != nil {
		return def, err
	}
	for _, el := range children {
		switch el.ID() {
		case ebml.IDCombinedCalID:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.handle = int(v)
		case ebml.IDCalMemberRef:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.members = append(def.members, int(v))
		}
	}
	if def.handle < 0 {
		return def, fmt.Errorf("combined polynomial without id at offset %d", entry.Offset())
	}
	return def, nil
}

func parsePolyPoly(entry *ebml.Element) (calDef, error) {
	def := calDef{kind: calPolyPoly, handle: -1}

	children, err := entry.Children()
	if err != nil {
		return def, err
	}
	for _, el := range children {
		switch el.ID() {
		case ebml.IDPolyPolyCalID:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.handle = int(v)
		case ebml.IDPolyPolyMemberRef:
			v, err := el.Uint()
			if err != nil {
				return def, err
			}
			def.members = append(def.members, int(v))
		case ebml.IDPolyPolyOuterCoef:
			v, err := el.Float()
			if err != nil {
				return def, err
			}
			def.outer = append(def.outer, v)
		}
	}
	if def.handle < 0 {
		return def, fmt.Errorf("polynomial composition without id at offset %d", entry.Offset())
	}
	return def, nil
}

// registerTransforms builds and registers every parsed calibration
// definition. A cyclic reference graph fails here, never at
// evaluation time.
func (h *headerParser) registerTransforms() error {
	reg := h.ds.Transforms()

	for _, def := range h.cals {
		var tr transform.Transform
		switch def.kind {
		case calUnivariate:
			tr = transform.NewUnivariate(def.coeffs)
		case calBivariate:
			tr = transform.NewBivariate(
				foldRows(def.coeffs, def.cols),
				transform.SubChannelRef{Channel: def.refChannel, Sub: def.refSub},
				h.referenceHandle(def.refChannel, def.refSub),
			)
		case calCombined:
			tr = transform.NewCombined(def.members)
		case calPolyPoly:
			tr = transform.NewPolyPoly(def.members, def.outer)
		}

		if err := reg.Register(def.handle, tr); err != nil {
			return fmt.Errorf("failed to register calibration %d: %w", def.handle, err)
		}
	}
	return nil
}

// referenceHandle returns the transform of the referenced axis, so a
// bivariate's registration-time dependency edge matches the transform
// the resolver will evaluate the reference through.
func (h *headerParser) referenceHandle(channelID, sub int) int {
	if handles, ok := h.axisHandles[channelID]; ok && sub >= 0 && sub < len(handles) {
		return handles[sub]
	}
	if ch, ok := h.ds.Channel(channelID); ok {
		return ch.Transform()
	}
	return transform.IdentityHandle
}

// foldRows shapes a flat coefficient list into rows of the given
// column count, the on-disk layout of bivariate coefficient matrices.
func foldRows(flat []float64, cols int) [][]float64 {
	var rows [][]float64
	for len(flat) > 0 {
		n := min(cols, len(flat))
		rows = append(rows, flat[:n])
		flat = flat[n:]
	}
	return rows
}

func (h *headerParser) parseSessionHeader(root *ebml.Element) error {
	children, err := root.Children()
	if err != nil {
		return err
	}

	id := -1
	var start int64
	var utc time.Time
	for _, el := range children {
		switch el.ID() {
		case ebml.IDSessionID:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			id = int(v)
		case ebml.IDSessionStartTime:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			start = int64(v)
		case ebml.IDSessionUTCStart:
			utc, err = dateValue(el)
			if err != nil {
				return err
			}
		}
	}
	if id < 0 {
		h.logger.Warn("session header without id skipped",
			slog.Int64("offset", root.Offset()))
		return nil
	}

	h.ds.StartSession(id, start, utc)
	return nil
}

func (h *headerParser) parseSessionFooter(root *ebml.Element) error {
	children, err := root.Children()
	if err != nil {
		return err
	}

	id := -1
	var end int64
	for _, el := range children {
		switch el.ID() {
		case ebml.IDSessionEndID:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			id = int(v)
		case ebml.IDSessionEndTime:
			v, err := el.Uint()
			if err != nil {
				return err
			}
			end = int64(v)
		}
	}
	if id < 0 {
		return nil
	}

	if err := h.ds.EndSession(id, end); err != nil {
		h.logger.Warn("footer for unknown session",
			slog.Int("session", id))
	}
	return nil
}

// dateValue decodes a date element through the lazy value cache.
func dateValue(el *ebml.Element) (time.Time, error) {
	v, err := el.Value()
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("element %s is not a date", el.Name())
	}
	return t, nil
}
